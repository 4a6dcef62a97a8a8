package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRows decodes a CSV statement export into header-keyed rows. The input
// must be UTF-8 with a header line; a leading byte-order mark is tolerated.
// Short rows leave the missing columns absent rather than failing the file.
func ReadRows(data []byte) ([]RawRow, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv file missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("ReadRows: reading header: %w", err)
	}

	var rows []RawRow
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadRows: reading row: %w", err)
		}
		row := make(RawRow, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
