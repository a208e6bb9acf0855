package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/tradevault/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	migratePairsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		base_currency TEXT NOT NULL DEFAULT 'USD',
		timezone TEXT NOT NULL DEFAULT 'UTC',
		multipliers_json TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS pairs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		market_type TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY,
		account_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		trade_time TEXT NOT NULL,
		exit_time TEXT,
		pair TEXT NOT NULL,
		position TEXT NOT NULL,
		lot_size REAL,
		entry_price REAL,
		exit_price REAL,
		sl_price REAL,
		take_profit REAL,
		commission REAL,
		swap REAL,
		profit_loss REAL,
		pip_value REAL,
		stop_loss REAL,
		hold_time INTEGER,
		outcome TEXT,
		actual_rr REAL,
		planned_rr REAL,
		actual_risk REAL,
		planned_risk REAL,
		position_id TEXT,
		market_type TEXT NOT NULL,
		FOREIGN KEY(account_id) REFERENCES accounts(id),
		UNIQUE(account_id, date, trade_time, pair, position, position_id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		logger.L.Error("failed to create tables", "error", err)
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	logger.L.Info("Database tables ensured/created.")
}

// migratePairsTable adds the market_type column to pairs tables created by
// older versions. Rows left with an empty market_type are backfilled lazily
// by the classifier on their next sighting.
func migratePairsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='pairs'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		logger.L.Error("Error checking for 'pairs' table", "error", err)
		return
	}

	rows, err := DB.Query("PRAGMA table_info(pairs)")
	if err != nil {
		stdlog.Printf("Error reading pairs table info: %v", err)
		return
	}
	defer rows.Close()

	hasMarketType := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if scanErr := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); scanErr != nil {
			stdlog.Printf("Error scanning pairs table info: %v", scanErr)
			return
		}
		if name == "market_type" {
			hasMarketType = true
		}
	}

	if !hasMarketType {
		if _, err := DB.Exec("ALTER TABLE pairs ADD COLUMN market_type TEXT NOT NULL DEFAULT ''"); err != nil {
			logger.L.Error("Error adding market_type column to pairs", "error", err)
			return
		}
		logger.L.Info("Added market_type column to pairs table")
	}
}

// EnsureDefaultAccount creates the single local account on first run and
// returns its id.
func EnsureDefaultAccount(name, baseCurrency, timezone string) (int64, error) {
	var id int64
	err := DB.QueryRow("SELECT id FROM accounts WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := DB.Exec(
		"INSERT INTO accounts (name, base_currency, timezone) VALUES (?, ?, ?)",
		name, baseCurrency, timezone,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
