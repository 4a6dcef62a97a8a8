package ingest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-dashboard/internal/config"
)

// isoOffsetLayout renders timestamps with an explicit numeric offset, so a
// UTC value comes out as "2024-01-05T00:00:00+00:00".
const isoOffsetLayout = "2006-01-02T15:04:05-07:00"

// Normalize converts raw CSV rows into canonical records using the provider
// mapping. Rows with a blank date or amount are skipped as non-transaction
// lines; a value that is present but unparseable aborts the run with a
// DataError. Output order matches input order minus the skipped rows.
func Normalize(rows []RawRow, provider, accountName string, mapping *config.Mapping) ([]*Record, error) {
	layout, err := strftimeToLayout(mapping.DateFormat)
	if err != nil {
		return nil, err
	}
	multiplier := mapping.Multiplier()

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rawDate := columnValue(row, mapping.DateColumn)
		rawAmount := columnValue(row, mapping.AmountColumn)
		if rawDate == "" || rawAmount == "" {
			continue
		}

		parsedDate, err := parseDateTime(rawDate, layout)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(rawAmount, multiplier)
		if err != nil {
			return nil, err
		}

		currency := columnValue(row, mapping.CurrencyColumn)
		if currency == "" {
			currency = mapping.Currency
		}
		if currency == "" {
			return nil, dataErrorf("currency missing and no default provided in mapping")
		}

		record := &Record{
			TransactionID:  columnValue(row, mapping.TransactionIDColumn),
			SourceProvider: provider,
			AccountName:    accountName,
			AccountType:    mapping.AccountType,
			DateTime:       parsedDate.Format(isoOffsetLayout),
			Amount:         amount,
			Currency:       currency,
			Merchant:       columnValue(row, mapping.MerchantColumn),
			Description:    columnValue(row, mapping.DescriptionColumn),
		}
		record.ImportHash = ComputeImportHash(record)
		records = append(records, record)
	}
	return records, nil
}

// columnValue reads a mapped column from a row. An unset column name or a
// column absent from the row yields an empty string, never an error.
func columnValue(row RawRow, column string) string {
	if column == "" {
		return ""
	}
	return strings.TrimSpace(row[column])
}

// parseDateTime parses the raw date text with the mapping's layout. Layouts
// without a zone parse as UTC.
func parseDateTime(raw, layout string) (time.Time, error) {
	parsed, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, &DataError{Msg: "invalid datetime value in CSV row", Err: err}
	}
	return parsed, nil
}

// parseAmount strips thousands separators, parses the text as an exact
// decimal, applies the mapping multiplier and rounds to two fraction digits.
// Ties round to even, matching the decimal-context default of the historical
// importer so re-imports of old files hash identically.
func parseAmount(raw string, multiplier decimal.Decimal) (string, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return "", dataErrorf("invalid amount value: %q", raw)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return "", &DataError{Msg: "invalid amount value: " + raw, Err: err}
	}
	return d.Mul(multiplier).RoundBank(2).StringFixed(2), nil
}
