package services

import (
	"io"

	"github.com/username/tradevault/backend/src/importer"
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/processors"
)

// ImportPreview is what the user confirms or abandons: the parsed batch plus
// the session id that addresses it in the preview cache.
type ImportPreview struct {
	ImportID string                  `json:"importId"`
	Trades   []models.CanonicalTrade `json:"trades"`
	Skipped  []models.SkipRecord     `json:"skipped"`
}

// ImportRequest carries the user's upload-time choices.
type ImportRequest struct {
	AccountID       int64
	Format          string
	SourceTimezone  string
	TargetTimezone  string
	HeaderOverrides importer.HeaderMapping
}

// CommitResult summarizes a persisted batch.
type CommitResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}

// ImportService is the core import orchestration: parse a broker export into
// a preview, then persist a confirmed preview.
type ImportService interface {
	ProcessImport(fileReader io.Reader, req ImportRequest) (*ImportPreview, error)
	CommitImport(importID string, accountID int64) (*CommitResult, error)
	GetTrades(accountID int64) ([]models.CanonicalTrade, error)
	DeleteAllTrades(accountID int64) error
	GetPairs() ([]models.PairRecord, error)
	GetStats(accountID int64) (*processors.JournalStats, error)
}
