package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/smartinventory/backend/internal/domain"
)

// HistoryStorage keeps spoilage history in a local SQLite file.
type HistoryStorage struct {
	db *sql.DB
}

// NewHistoryStorage opens (or creates) the database at dbPath
func NewHistoryStorage(dbPath string) (*HistoryStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}
	// one writer keeps appends serialized
	db.SetMaxOpenConns(1)

	storage := &HistoryStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *HistoryStorage) Close() error {
	return s.db.Close()
}

func (s *HistoryStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS spoilage_history (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        item TEXT NOT NULL,
        city TEXT NOT NULL,
        loss_percentage REAL NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_history_city_item ON spoilage_history(city, item);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (s *HistoryStorage) Append(ctx context.Context, rec domain.HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO spoilage_history (id, item, city, loss_percentage, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, rec.ID, domain.Normalize(rec.Item), domain.Normalize(rec.City), rec.LossPercentage,
		rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: failed to insert history record: %w", err)
	}
	return nil
}

func (s *HistoryStorage) QueryByCity(ctx context.Context, city string) ([]domain.ItemLoss, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT item, AVG(loss_percentage), COUNT(*)
        FROM spoilage_history
        WHERE city = ?
        GROUP BY item
        ORDER BY AVG(loss_percentage) DESC, MIN(seq) ASC
    `, domain.Normalize(city))
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ItemLoss, 0)
	for rows.Next() {
		var l domain.ItemLoss
		if err := rows.Scan(&l.Item, &l.LossPercentage, &l.Count); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan history row: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate history rows: %w", err)
	}
	return out, nil
}

func (s *HistoryStorage) DeleteByCityAndItem(ctx context.Context, city, item string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM spoilage_history WHERE city = ? AND item = ?`,
		domain.Normalize(city), domain.Normalize(item))
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to delete history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to count deleted rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: failed to commit delete: %w", err)
	}
	return int(n), nil
}

func (s *HistoryStorage) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: health check failed: %w", err)
	}
	return nil
}

var _ domain.HistoryRepository = (*HistoryStorage)(nil)
