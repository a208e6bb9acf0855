package importer

import (
	"io"

	"github.com/username/tradevault/backend/src/models"
)

// Supported source format tags, as selected by the user at upload time.
const (
	FormatCSV     = "csv"
	FormatMT5     = "mt5"
	FormatCtrader = "ctrader"
)

// Result is what a format parser produces for one file: the normalized
// trades and the diagnostics for every row that could not be normalized.
type Result struct {
	Trades  []models.CanonicalTrade `json:"trades"`
	Skipped []models.SkipRecord     `json:"skipped"`
}

// Parser is implemented once per broker export format. Parse reads the whole
// file, resolves its header mapping, and runs every row through the shared
// finalization pipeline. A bad row lands in Result.Skipped; Parse returns a
// non-nil error only for file-level failures (unreadable file, table not
// found, unresolved required columns).
type Parser interface {
	Parse(file io.Reader, ctx *Context) (*Result, error)
}

// PairStore is the persistence collaborator the market classifier uses to
// record newly seen symbols and backfill legacy ones. Implemented over
// SQLite by the services layer; tests supply in-memory fakes.
type PairStore interface {
	Insert(pair *models.PairRecord) error
	UpdateMarketType(id int64, marketType string) error
}
