// Package config loads the per-provider CSV column mappings and the
// database settings for the ingestion service.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// GenericProvider is the mapping file used when no provider-specific one exists.
const GenericProvider = "generic"

// ErrMappingNotFound is returned when neither a provider-specific nor a
// generic mapping file exists in the mappings directory.
var ErrMappingNotFound = errors.New("no CSV mapping configuration found")

// Mapping describes how to pull canonical transaction fields out of one
// provider's CSV export. Zero values are filled with defaults at load time;
// DateColumn and AmountColumn are required.
type Mapping struct {
	DateColumn          string      `json:"date_column"`
	DateFormat          string      `json:"date_format"`
	AmountColumn        string      `json:"amount_column"`
	AmountMultiplier    json.Number `json:"amount_multiplier"`
	CurrencyColumn      string      `json:"currency_column"`
	Currency            string      `json:"currency"`
	MerchantColumn      string      `json:"merchant_column"`
	DescriptionColumn   string      `json:"description_column"`
	TransactionIDColumn string      `json:"transaction_id_column"`
	AccountType         string      `json:"account_type"`
}

func (m *Mapping) applyDefaults() {
	if m.DateFormat == "" {
		m.DateFormat = "%Y-%m-%d"
	}
	if m.AmountMultiplier == "" {
		m.AmountMultiplier = "1"
	}
	if m.AccountType == "" {
		m.AccountType = "checking"
	}
}

// Validate checks the invariants that make a mapping usable at all. A mapping
// without a date or amount column is a configuration error, not a row error.
func (m *Mapping) Validate() error {
	if m.DateColumn == "" || m.AmountColumn == "" {
		return errors.New("csv mapping must include date_column and amount_column")
	}
	if _, err := decimal.NewFromString(m.AmountMultiplier.String()); err != nil {
		return fmt.Errorf("invalid amount_multiplier %q", m.AmountMultiplier.String())
	}
	return nil
}

// Multiplier returns the amount multiplier as an exact decimal.
func (m *Mapping) Multiplier() decimal.Decimal {
	d, err := decimal.NewFromString(m.AmountMultiplier.String())
	if err != nil {
		// Validate rejects unparseable multipliers at load time.
		return decimal.NewFromInt(1)
	}
	return d
}

// MappingProvider resolves mappings from a directory of JSON documents, one
// file per provider, with generic.json as the fallback.
type MappingProvider struct {
	dir string
}

// NewMappingProvider creates a provider reading from the given directory.
func NewMappingProvider(dir string) *MappingProvider {
	return &MappingProvider{dir: dir}
}

// Load resolves the mapping for a provider name. It falls back to the generic
// mapping when no provider-specific file exists, and returns
// ErrMappingNotFound when neither is present.
func (p *MappingProvider) Load(provider string) (*Mapping, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, provider+".json"))
	if errors.Is(err, os.ErrNotExist) {
		data, err = os.ReadFile(filepath.Join(p.dir, GenericProvider+".json"))
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMappingNotFound
		}
	}
	if err != nil {
		return nil, fmt.Errorf("Load: reading mapping file: %w", err)
	}

	var m Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("Load: parsing mapping for %q: %w", provider, err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("Load: mapping for %q: %w", provider, err)
	}
	return &m, nil
}

// MappingsDir returns the directory holding the mapping files, overridable
// through FINANCE_MAPPINGS_DIR.
func MappingsDir() string {
	if dir := os.Getenv("FINANCE_MAPPINGS_DIR"); dir != "" {
		return dir
	}
	return "mappings"
}
