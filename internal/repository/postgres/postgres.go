package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartinventory/backend/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS spoilage_history (
		id              UUID PRIMARY KEY,
		item            TEXT NOT NULL,
		city            TEXT NOT NULL,
		loss_percentage DOUBLE PRECISION NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_spoilage_history_city_item ON spoilage_history (city, item);
`

// PostgresRepository implements domain.HistoryRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the history table when it does not exist yet
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// Append persists a spoilage history record
func (r *PostgresRepository) Append(ctx context.Context, rec domain.HistoryRecord) error {
	query := `
		INSERT INTO spoilage_history (id, item, city, loss_percentage, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, query,
		rec.ID, domain.Normalize(rec.Item), domain.Normalize(rec.City), rec.LossPercentage, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save history record: %w", err)
	}

	return nil
}

// QueryByCity returns mean loss per item for a city
func (r *PostgresRepository) QueryByCity(ctx context.Context, city string) ([]domain.ItemLoss, error) {
	query := `
		SELECT item, AVG(loss_percentage), COUNT(*)
		FROM spoilage_history
		WHERE city = $1
		GROUP BY item
		ORDER BY AVG(loss_percentage) DESC, MIN(created_at) ASC
	`

	rows, err := r.pool.Query(ctx, query, domain.Normalize(city))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query history: %w", err)
	}
	defer rows.Close()

	results := make([]domain.ItemLoss, 0)
	for rows.Next() {
		var l domain.ItemLoss
		if err := rows.Scan(&l.Item, &l.LossPercentage, &l.Count); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan history row: %w", err)
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate history rows: %w", err)
	}

	return results, nil
}

// DeleteByCityAndItem removes every record for the pair
func (r *PostgresRepository) DeleteByCityAndItem(ctx context.Context, city, item string) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM spoilage_history WHERE city = $1 AND item = $2`,
		domain.Normalize(city), domain.Normalize(item),
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to delete history: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

var _ domain.HistoryRepository = (*PostgresRepository)(nil)
