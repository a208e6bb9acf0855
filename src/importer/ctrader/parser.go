// Package ctrader parses cTrader HTML statement exports.
package ctrader

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/tradevault/backend/src/importer"
	"github.com/username/tradevault/backend/src/importer/htmldoc"
	"github.com/username/tradevault/backend/src/logger"
)

type CtraderParser struct{}

func NewParser() *CtraderParser {
	return &CtraderParser{}
}

// UnmappedFieldsError reports the required fields the fuzzy matcher could not
// resolve. The caller surfaces Fields and Headers so the user can supply a
// manual mapping, which comes back in via Context.HeaderOverrides.
type UnmappedFieldsError struct {
	Fields  []string
	Headers []string
}

func (e *UnmappedFieldsError) Error() string {
	return fmt.Sprintf("ctrader parser: could not map required fields: %s", strings.Join(e.Fields, ", "))
}

// Parse scrapes the history table out of a cTrader statement. Headers are
// resolved with the positional fuzzy matcher because cTrader decorates them
// ("Opening time (UTC-4)") and reorders columns between statement versions.
func (p *CtraderParser) Parse(file io.Reader, ctx *importer.Context) (*importer.Result, error) {
	tables, err := htmldoc.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("ctrader parser: failed to parse HTML: %w", err)
	}

	table := locateHistoryTable(tables)
	if table == nil {
		return nil, fmt.Errorf("ctrader parser: no history table found")
	}

	headerIdx, header := locateHeaderRow(table)
	if headerIdx < 0 {
		return nil, fmt.Errorf("ctrader parser: header row not found in history table")
	}

	mapping, missing := importer.MapHeadersFuzzy(header, ctx.HeaderOverrides)
	if len(missing) > 0 {
		return nil, &UnmappedFieldsError{Fields: missing, Headers: header}
	}

	result := &importer.Result{}
	for i := headerIdx + 1; i < len(table.Rows); i++ {
		row := table.Rows[i]
		cells := row.Texts()

		if isTotalsRow(cells) {
			continue
		}
		if len(cells) != len(header) {
			logger.L.Debug("Skipping cTrader row with cell-count mismatch",
				"row", i+1, "cells", len(cells), "headers", len(header))
			continue
		}

		raw := importer.RawRow{Row: i + 1, Fields: map[string]string{}}
		for field, col := range mapping {
			if col < len(cells) {
				raw.Fields[field] = cells[col]
			}
		}

		trade, skipped := importer.FinalizeRow(ctx, raw)
		if skipped != nil {
			logger.L.Debug("Skipping cTrader row", "row", i+1, "reason", skipped.Reason)
			result.Skipped = append(result.Skipped, *skipped)
			continue
		}
		result.Trades = append(result.Trades, *trade)
	}

	return result, nil
}

// locateHistoryTable finds the statement's history table: a table classed
// dataTable whose first header cell reads "History", or failing that any
// table mentioning the characteristic column names.
func locateHistoryTable(tables []htmldoc.Table) *htmldoc.Table {
	for i := range tables {
		t := &tables[i]
		if !strings.Contains(t.Class, "dataTable") {
			continue
		}
		if len(t.Rows) > 0 && len(t.Rows[0].Cells) > 0 &&
			strings.EqualFold(t.Rows[0].Cells[0].Text, "history") {
			return t
		}
		text := strings.ToLower(t.Text())
		if strings.Contains(text, "order id") || strings.Contains(text, "opening time") {
			return t
		}
	}
	return nil
}

// locateHeaderRow finds the row whose cells carry the cell-header class.
func locateHeaderRow(table *htmldoc.Table) (int, []string) {
	for i, row := range table.Rows {
		headerCells := 0
		for _, cell := range row.Cells {
			if strings.Contains(cell.Class, "cell-header") {
				headerCells++
			}
		}
		if headerCells > 0 && headerCells == len(row.Cells) {
			return i, row.Texts()
		}
	}
	return -1, nil
}

// isTotalsRow recognizes the summary row cTrader appends below the trades.
func isTotalsRow(cells []string) bool {
	for _, cell := range cells {
		if strings.EqualFold(strings.TrimSpace(cell), "total") ||
			strings.EqualFold(strings.TrimSpace(cell), "totals") {
			return true
		}
	}
	return false
}
