// Package mt5 parses MetaTrader 5 HTML trade reports.
package mt5

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/username/tradevault/backend/src/importer"
	"github.com/username/tradevault/backend/src/importer/htmldoc"
	"github.com/username/tradevault/backend/src/logger"
)

// Cell vocabulary used to fingerprint the header row inside the positions
// table. MT5 reports put account metadata rows above the real header.
var headerVocabulary = map[string]bool{
	"time": true, "position": true, "symbol": true, "type": true,
	"volume": true, "price": true, "s / l": true, "t / p": true,
	"s/l": true, "t/p": true, "commission": true, "swap": true,
	"profit": true, "order": true, "deal": true,
}

const headerFingerprintMin = 5

type MT5Parser struct{}

func NewParser() *MT5Parser {
	return &MT5Parser{}
}

// Parse scrapes the positions table out of an MT5 HTML report. The table is
// located by its text content, the header row by a fingerprint of known cell
// labels, and iteration stops at the "Open Time" header that begins the
// report's next section (open orders).
func (p *MT5Parser) Parse(file io.Reader, ctx *importer.Context) (*importer.Result, error) {
	tables, err := htmldoc.Parse(decodeUTF16IfNeeded(file))
	if err != nil {
		return nil, fmt.Errorf("mt5 parser: failed to parse HTML: %w", err)
	}

	table := locatePositionsTable(tables)
	if table == nil {
		return nil, fmt.Errorf("mt5 parser: no positions or trade history table found")
	}

	headerIdx, header := locateHeaderRow(table)
	if headerIdx < 0 {
		return nil, fmt.Errorf("mt5 parser: header row not found in positions table")
	}

	mapping, missing, err := importer.MapHeaders(importer.FormatMT5, header)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("mt5 parser: missing required columns: %s", strings.Join(missing, ", "))
	}

	result := &importer.Result{}
	for i := headerIdx + 1; i < len(table.Rows); i++ {
		cells := table.Rows[i].Texts()
		if isSectionSentinel(cells) {
			// Start of the orders section; positions are done.
			break
		}
		if len(cells) < headerFingerprintMin {
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
			logger.L.Debug("Skipping MT5 row", "row", i+1, "reason", skipped.Reason)
			result.Skipped = append(result.Skipped, *skipped)
			continue
		}
		result.Trades = append(result.Trades, *trade)
	}

	return result, nil
}

// decodeUTF16IfNeeded re-decodes MT5 reports saved as UTF-16 with a BOM;
// UTF-8 input passes through untouched.
func decodeUTF16IfNeeded(r io.Reader) io.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, decoder)
}

func locatePositionsTable(tables []htmldoc.Table) *htmldoc.Table {
	for i := range tables {
		text := strings.ToLower(tables[i].Text())
		if strings.Contains(text, "positions") || strings.Contains(text, "trade history") {
			return &tables[i]
		}
	}
	return nil
}

// locateHeaderRow scans for the first row where at least five non-empty
// cells belong to the known header vocabulary.
func locateHeaderRow(table *htmldoc.Table) (int, []string) {
	for i, row := range table.Rows {
		matches := 0
		for _, cell := range row.Cells {
			if cell.Text == "" {
				continue
			}
			if headerVocabulary[strings.ToLower(cell.Text)] {
				matches++
			}
		}
		if matches >= headerFingerprintMin {
			return i, row.Texts()
		}
	}
	return -1, nil
}

// isSectionSentinel recognizes the header of the following report section,
// which MT5 renders into the same table.
func isSectionSentinel(cells []string) bool {
	for _, cell := range cells {
		if strings.EqualFold(strings.TrimSpace(cell), "open time") {
			return true
		}
	}
	return false
}
