package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/tradevault/backend/src/database"
	"github.com/username/tradevault/backend/src/importer"
	"github.com/username/tradevault/backend/src/importer/csvfmt"
	"github.com/username/tradevault/backend/src/importer/ctrader"
	"github.com/username/tradevault/backend/src/importer/mt5"
	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/processors"
)

var (
	ErrParsingFailed   = errors.New("parsing failed")
	ErrPreviewNotFound = errors.New("import preview not found or expired")
	ErrUnknownAccount  = errors.New("unknown account")
)

const (
	ckStats   = "stats_account_%d"
	ckPreview = "import_preview_%s"
)

// GetParser returns a fresh parser for the user-selected format tag.
func GetParser(format string) (importer.Parser, error) {
	switch format {
	case importer.FormatCSV:
		return csvfmt.NewParser(), nil
	case importer.FormatMT5:
		return mt5.NewParser(), nil
	case importer.FormatCtrader:
		return ctrader.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}

type importServiceImpl struct {
	statsProcessor *processors.StatsProcessor
	cache          *cache.Cache
	previewExpiry  time.Duration
}

func NewImportService(statsProcessor *processors.StatsProcessor, c *cache.Cache, previewExpiry time.Duration) ImportService {
	return &importServiceImpl{
		statsProcessor: statsProcessor,
		cache:          c,
		previewExpiry:  previewExpiry,
	}
}

// cachedPreview keeps the parsed batch together with the request that
// produced it; the commit step needs the source timezone and account.
type cachedPreview struct {
	req     ImportRequest
	preview *ImportPreview
}

// ProcessImport parses one uploaded broker export into an in-memory preview.
// Nothing is persisted except newly sighted pairs; the trades wait in the
// preview cache until the user confirms.
func (s *importServiceImpl) ProcessImport(fileReader io.Reader, req ImportRequest) (*ImportPreview, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessImport START", "accountID", req.AccountID, "format", req.Format)

	account, err := fetchAccount(req.AccountID)
	if err != nil {
		return nil, err
	}

	parser, err := GetParser(req.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	pairs, err := fetchPairs()
	if err != nil {
		return nil, fmt.Errorf("error loading pairs: %w", err)
	}
	existing, err := fetchAccountTrades(req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("error loading existing trades: %w", err)
	}

	classifier := importer.NewMarketClassifier(&sqlitePairStore{}, pairs)
	dedupe := importer.NewDedupeIndex(req.AccountID, existing)

	ctx, err := importer.NewContext(
		req.AccountID, req.Format,
		req.SourceTimezone, req.TargetTimezone,
		account.BaseCurrency,
		models.ParseBrokerMultipliers(account.MultipliersJSON),
		classifier, dedupe,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	ctx.HeaderOverrides = req.HeaderOverrides

	result, err := parser.Parse(fileReader, ctx)
	if err != nil {
		var unmapped *ctrader.UnmappedFieldsError
		if errors.As(err, &unmapped) {
			// Surface as-is so the handler can offer manual mapping.
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	preview := &ImportPreview{
		ImportID: uuid.NewString(),
		Trades:   result.Trades,
		Skipped:  result.Skipped,
	}
	if preview.Trades == nil {
		preview.Trades = []models.CanonicalTrade{}
	}
	if preview.Skipped == nil {
		preview.Skipped = []models.SkipRecord{}
	}

	s.cache.Set(fmt.Sprintf(ckPreview, preview.ImportID), &cachedPreview{req: req, preview: preview}, s.previewExpiry)

	logger.L.Info("ProcessImport END",
		"accountID", req.AccountID,
		"accepted", len(preview.Trades),
		"skipped", len(preview.Skipped),
		"duration", time.Since(overallStartTime))
	return preview, nil
}

// CommitImport persists a previewed batch. Inserts run inside one database
// transaction; rows colliding with the UNIQUE dedupe constraint are counted
// and skipped rather than failing the batch. The account's broker timezone
// is updated to the batch's source timezone exactly once.
func (s *importServiceImpl) CommitImport(importID string, accountID int64) (*CommitResult, error) {
	cachedValue, found := s.cache.Get(fmt.Sprintf(ckPreview, importID))
	if !found {
		return nil, ErrPreviewNotFound
	}
	cached := cachedValue.(*cachedPreview)
	if cached.req.AccountID != accountID {
		return nil, ErrPreviewNotFound
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO trades (
		id, account_id, date, trade_time, exit_time, pair, position, lot_size,
		entry_price, exit_price, sl_price, take_profit, commission, swap,
		profit_loss, pip_value, stop_loss, hold_time, outcome, actual_rr,
		planned_rr, actual_risk, planned_risk, position_id, market_type
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	result := &CommitResult{}
	for i := range cached.preview.Trades {
		t := &cached.preview.Trades[i]
		_, err := stmt.Exec(
			t.ID, t.AccountID, t.Date, t.TradeTime, t.ExitTime, t.Pair, t.Position, t.LotSize,
			t.EntryPrice, t.ExitPrice, t.SLPrice, t.TakeProfit, t.Commission, t.Swap,
			t.ProfitLoss, t.PipValue, t.StopLoss, t.HoldTime, t.Outcome, t.ActualRR,
			t.PlannedRR, t.ActualRisk, t.PlannedRisk, t.PositionID, t.MarketType,
		)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping duplicate trade on commit", "accountID", accountID, "key", t.Key())
				result.Duplicates++
				continue
			}
			return nil, fmt.Errorf("error inserting trade (PositionID: %s): %w", t.PositionID, err)
		}
		result.Inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing trades: %w", err)
	}

	if _, err := database.DB.Exec(
		"UPDATE accounts SET timezone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		cached.req.SourceTimezone, accountID,
	); err != nil {
		logger.L.Warn("Failed to update account timezone after import", "accountID", accountID, "error", err)
	}

	s.cache.Delete(fmt.Sprintf(ckPreview, importID))
	s.InvalidateAccountCache(accountID)

	logger.L.Info("CommitImport END", "accountID", accountID,
		"inserted", result.Inserted, "duplicates", result.Duplicates)
	return result, nil
}

// InvalidateAccountCache clears cached aggregates so the next request
// recalculates from the database.
func (s *importServiceImpl) InvalidateAccountCache(accountID int64) {
	s.cache.Delete(fmt.Sprintf(ckStats, accountID))
}

func (s *importServiceImpl) GetTrades(accountID int64) ([]models.CanonicalTrade, error) {
	return fetchAccountTrades(accountID)
}

func (s *importServiceImpl) DeleteAllTrades(accountID int64) error {
	_, err := database.DB.Exec("DELETE FROM trades WHERE account_id = ?", accountID)
	if err != nil {
		return fmt.Errorf("error deleting trades for account %d: %w", accountID, err)
	}
	s.InvalidateAccountCache(accountID)
	return nil
}

func (s *importServiceImpl) GetPairs() ([]models.PairRecord, error) {
	return fetchPairs()
}

func (s *importServiceImpl) GetStats(accountID int64) (*processors.JournalStats, error) {
	cacheKey := fmt.Sprintf(ckStats, accountID)
	if cached, found := s.cache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for stats", "accountID", accountID)
		return cached.(*processors.JournalStats), nil
	}

	trades, err := fetchAccountTrades(accountID)
	if err != nil {
		return nil, err
	}
	stats := s.statsProcessor.Process(trades)
	s.cache.Set(cacheKey, stats, cache.DefaultExpiration)
	return stats, nil
}

// sqlitePairStore lets the classifier persist pair sightings mid-batch.
type sqlitePairStore struct{}

func (s *sqlitePairStore) Insert(pair *models.PairRecord) error {
	res, err := database.DB.Exec(
		"INSERT INTO pairs (name, market_type) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET market_type = excluded.market_type",
		pair.Name, pair.MarketType,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		pair.ID = id
	}
	return nil
}

func (s *sqlitePairStore) UpdateMarketType(id int64, marketType string) error {
	_, err := database.DB.Exec("UPDATE pairs SET market_type = ? WHERE id = ?", marketType, id)
	return err
}

func fetchAccount(accountID int64) (*models.Account, error) {
	var a models.Account
	err := database.DB.QueryRow(
		"SELECT id, name, base_currency, timezone, multipliers_json FROM accounts WHERE id = ?",
		accountID,
	).Scan(&a.ID, &a.Name, &a.BaseCurrency, &a.Timezone, &a.MultipliersJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAccount, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading account %d: %w", accountID, err)
	}
	return &a, nil
}

func fetchPairs() ([]models.PairRecord, error) {
	rows, err := database.DB.Query("SELECT id, name, market_type FROM pairs ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("error querying pairs: %w", err)
	}
	defer rows.Close()

	var pairs []models.PairRecord
	for rows.Next() {
		var p models.PairRecord
		if err := rows.Scan(&p.ID, &p.Name, &p.MarketType); err != nil {
			return nil, fmt.Errorf("error scanning pair row: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func fetchAccountTrades(accountID int64) ([]models.CanonicalTrade, error) {
	logger.L.Debug("Fetching trades from DB", "accountID", accountID)
	rows, err := database.DB.Query(`SELECT
		id, account_id, date, trade_time, exit_time, pair, position, lot_size,
		entry_price, exit_price, sl_price, take_profit, commission, swap,
		profit_loss, pip_value, stop_loss, hold_time, outcome, actual_rr,
		planned_rr, actual_risk, planned_risk, position_id, market_type
		FROM trades WHERE account_id = ? ORDER BY date ASC, trade_time ASC, id ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("error querying trades for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var trades []models.CanonicalTrade
	for rows.Next() {
		var t models.CanonicalTrade
		var exitTime sql.NullString
		var positionID sql.NullString
		scanErr := rows.Scan(
			&t.ID, &t.AccountID, &t.Date, &t.TradeTime, &exitTime, &t.Pair, &t.Position, &t.LotSize,
			&t.EntryPrice, &t.ExitPrice, &t.SLPrice, &t.TakeProfit, &t.Commission, &t.Swap,
			&t.ProfitLoss, &t.PipValue, &t.StopLoss, &t.HoldTime, &t.Outcome, &t.ActualRR,
			&t.PlannedRR, &t.ActualRisk, &t.PlannedRisk, &positionID, &t.MarketType,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning trade row for account %d: %w", accountID, scanErr)
		}
		t.ExitTime = exitTime.String
		t.PositionID = positionID.String
		trades = append(trades, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over trade rows for account %d: %w", accountID, err)
	}
	logger.L.Debug("DB fetch complete.", "accountID", accountID, "tradeCount", len(trades))
	return trades, nil
}
