// Package csvfmt parses generic CSV trade-history exports.
package csvfmt

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/tradevault/backend/src/importer"
	"github.com/username/tradevault/backend/src/logger"
)

type CSVParser struct{}

func NewParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads a delimited trade-history file: the first row is the header,
// every subsequent row is one trade. Rows that cannot be normalized land in
// the skip list; a required column that cannot be mapped at all aborts the
// file before any row is processed.
func (p *CSVParser) Parse(file io.Reader, ctx *importer.Context) (*importer.Result, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	// Some exports use semicolons; reparse when the comma pass produced a
	// single glued column.
	if len(header) == 1 && strings.Contains(header[0], ";") {
		reader = csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		reader.Comma = ';'
		if header, err = reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
	}

	mapping, missing, err := importer.MapHeaders(importer.FormatCSV, header)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV is missing required columns: %s", strings.Join(missing, ", "))
	}

	result := &importer.Result{}
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV records: %w", err)
		}
		rowNum++

		if isEmptyRecord(record) {
			continue
		}

		raw := importer.RawRow{Row: rowNum, Fields: map[string]string{}}
		for field, col := range mapping {
			if col < len(record) {
				raw.Fields[field] = record[col]
			}
		}

		trade, skipped := importer.FinalizeRow(ctx, raw)
		if skipped != nil {
			logger.L.Debug("Skipping CSV row", "row", rowNum, "reason", skipped.Reason)
			result.Skipped = append(result.Skipped, *skipped)
			continue
		}
		result.Trades = append(result.Trades, *trade)
	}

	return result, nil
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
