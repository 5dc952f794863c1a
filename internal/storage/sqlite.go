package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	apierrors "sellerpulse/internal/errors"
	"sellerpulse/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	unique_key TEXT PRIMARY KEY,
	id TEXT NOT NULL,
	date_unix INTEGER NOT NULL,
	date_only TEXT NOT NULL,
	marketplace_code TEXT NOT NULL,
	category_type TEXT NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_marketplace ON transactions(marketplace_code);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_type);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date_unix);

CREATE TABLE IF NOT EXISTS marketplace_meta (
	code TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apierrors.NewStorageError(fmt.Sprintf("failed to open database at %s", path), err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, apierrors.NewStorageError("failed to configure database", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, apierrors.NewStorageError("failed to create tables", err)
	}

	logger.Info("database ready", slog.String("path", path))
	return &SQLiteStore{db: db, logger: logger.With(slog.String("component", "storage"))}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutTransactions(ctx context.Context, txs []domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apierrors.NewStorageError("failed to begin transaction", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions
			(unique_key, id, date_unix, date_only, marketplace_code, category_type, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, apierrors.NewStorageError("failed to prepare insert", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range txs {
		data, err := json.Marshal(tx)
		if err != nil {
			return 0, apierrors.NewStorageError(fmt.Sprintf("failed to encode transaction %s", tx.ID), err)
		}
		res, err := stmt.ExecContext(ctx, tx.UniqueKey, tx.ID, tx.Date.UnixNano(), tx.DateOnly,
			tx.MarketplaceCode, string(tx.CategoryType), string(data))
		if err != nil {
			return 0, apierrors.NewStorageError(fmt.Sprintf("failed to insert transaction %s", tx.ID), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, apierrors.NewStorageError("failed to read insert result", err)
		}
		inserted += int(n)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, apierrors.NewStorageError("failed to commit transactions", err)
	}
	s.logger.DebugContext(ctx, "transactions stored",
		slog.Int("offered", len(txs)),
		slog.Int("inserted", inserted))
	return inserted, nil
}

func (s *SQLiteStore) AllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx, `SELECT data FROM transactions ORDER BY date_unix, rowid`)
}

func (s *SQLiteStore) TransactionsByMarketplace(ctx context.Context, code string) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT data FROM transactions WHERE marketplace_code = ? ORDER BY date_unix, rowid`, code)
}

func (s *SQLiteStore) TransactionsByCategory(ctx context.Context, category domain.CategoryType) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT data FROM transactions WHERE category_type = ? ORDER BY date_unix, rowid`, string(category))
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to query transactions", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, apierrors.NewStorageError("failed to scan transaction", err)
		}
		var tx domain.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			return nil, apierrors.NewStorageError("failed to decode transaction", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apierrors.NewStorageError("failed to iterate transactions", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteMarketplace(ctx context.Context, code string) (int, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apierrors.NewStorageError("failed to begin transaction", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `DELETE FROM transactions WHERE marketplace_code = ?`, code)
	if err != nil {
		return 0, apierrors.NewStorageError(fmt.Sprintf("failed to delete %s transactions", code), err)
	}
	removed, _ := res.RowsAffected()
	if _, err := dbTx.ExecContext(ctx, `DELETE FROM marketplace_meta WHERE code = ?`, code); err != nil {
		return 0, apierrors.NewStorageError(fmt.Sprintf("failed to delete %s metadata", code), err)
	}
	if err := dbTx.Commit(); err != nil {
		return 0, apierrors.NewStorageError("failed to commit delete", err)
	}

	s.logger.InfoContext(ctx, "marketplace data deleted", slog.String("marketplace", code), slog.Int64("removed", removed))
	return int(removed), nil
}

func (s *SQLiteStore) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, apierrors.NewStorageError("failed to count transactions", err)
	}
	return n, nil
}

func (s *SQLiteStore) MarketplaceStats(ctx context.Context, code string) (int, domain.DateRange, error) {
	var (
		n          int
		start, end sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(date_only), MAX(date_only) FROM transactions WHERE marketplace_code = ?`, code).
		Scan(&n, &start, &end)
	if err != nil {
		return 0, domain.DateRange{}, apierrors.NewStorageError(fmt.Sprintf("failed to summarize %s", code), err)
	}
	return n, domain.DateRange{Start: start.String, End: end.String}, nil
}

func (s *SQLiteStore) Metadata(ctx context.Context, code string) (domain.MarketplaceMetadata, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM marketplace_meta WHERE code = ?`, code).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MarketplaceMetadata{}, false, nil
	}
	if err != nil {
		return domain.MarketplaceMetadata{}, false, apierrors.NewStorageError(fmt.Sprintf("failed to read %s metadata", code), err)
	}
	var meta domain.MarketplaceMetadata
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return domain.MarketplaceMetadata{}, false, apierrors.NewStorageError(fmt.Sprintf("failed to decode %s metadata", code), err)
	}
	return meta, true, nil
}

func (s *SQLiteStore) ListMetadata(ctx context.Context) ([]domain.MarketplaceMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM marketplace_meta ORDER BY code`)
	if err != nil {
		return nil, apierrors.NewStorageError("failed to list metadata", err)
	}
	defer rows.Close()

	out := make([]domain.MarketplaceMetadata, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, apierrors.NewStorageError("failed to scan metadata", err)
		}
		var meta domain.MarketplaceMetadata
		if err := json.Unmarshal([]byte(data), &meta); err != nil {
			return nil, apierrors.NewStorageError("failed to decode metadata", err)
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, apierrors.NewStorageError("failed to iterate metadata", err)
	}
	return out, nil
}

func (s *SQLiteStore) PutMetadata(ctx context.Context, meta domain.MarketplaceMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return apierrors.NewStorageError("failed to encode metadata", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO marketplace_meta (code, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		meta.Code, string(data), time.Now().UTC())
	if err != nil {
		return apierrors.NewStorageError(fmt.Sprintf("failed to write %s metadata", meta.Code), err)
	}
	return nil
}

func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apierrors.NewStorageError(fmt.Sprintf("failed to read %s", key), err)
	}
	return value, true, nil
}

func (s *SQLiteStore) PutValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return apierrors.NewStorageError(fmt.Sprintf("failed to write %s", key), err)
	}
	return nil
}
