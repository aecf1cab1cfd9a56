package reference

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the mapping in a single SQLite table. It holds the current
// baselines only; Save replaces the whole table content.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[INFO] sqlite reference store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS reference_prices (
		ticker     TEXT PRIMARY KEY,
		price      TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) (Prices, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker, price FROM reference_prices`)
	if err != nil {
		return nil, fmt.Errorf("query reference prices: %w", err)
	}
	defer rows.Close()

	prices := Prices{}
	for rows.Next() {
		var ticker, raw string
		if err := rows.Scan(&ticker, &raw); err != nil {
			return nil, fmt.Errorf("scan reference price: %w", err)
		}
		price, err := decimal.NewFromString(raw)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("%w: bad price %q for %s", ErrCorrupt, raw, ticker)
		}
		prices[ticker] = price
	}
	return prices, rows.Err()
}

// Save upserts every entry and drops tickers missing from prices, in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, prices Prices) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	keep := make(map[string]bool, len(prices))
	for ticker, price := range prices {
		keep[ticker] = true
		if _, err := tx.ExecContext(ctx, `INSERT INTO reference_prices (ticker, price, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(ticker) DO UPDATE SET price = excluded.price`,
			ticker, price.String(), now); err != nil {
			return fmt.Errorf("upsert %s: %w", ticker, err)
		}
	}

	existing, err := tx.QueryContext(ctx, `SELECT ticker FROM reference_prices`)
	if err != nil {
		return fmt.Errorf("list tickers: %w", err)
	}
	var stale []string
	for existing.Next() {
		var ticker string
		if err := existing.Scan(&ticker); err != nil {
			existing.Close()
			return err
		}
		if !keep[ticker] {
			stale = append(stale, ticker)
		}
	}
	existing.Close()
	for _, ticker := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reference_prices WHERE ticker = ?`, ticker); err != nil {
			return fmt.Errorf("delete %s: %w", ticker, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite reference store")
	return s.db.Close()
}
