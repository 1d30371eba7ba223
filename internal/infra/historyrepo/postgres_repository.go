package historyrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/phytocast/internal/domain/prediction"
)

const schema = `
CREATE TABLE IF NOT EXISTS prediction_history (
	id          TEXT PRIMARY KEY,
	origin      TEXT NOT NULL,
	forecast_date TEXT,
	request     JSONB NOT NULL,
	result      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS prediction_history_created_at_idx ON prediction_history (created_at DESC);
`

// PostgresRepository implements prediction.HistoryRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the history table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create prediction_history: %w", err)
	}
	return nil
}

// Save inserts one prediction.
func (r *PostgresRepository) Save(ctx context.Context, record prediction.Record) error {
	request, err := json.Marshal(record.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	result, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	var date any
	if record.Date != "" {
		date = record.Date
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO prediction_history (id, origin, forecast_date, request, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, record.ID, record.Origin, date, request, result, record.CreatedAt)
	return err
}

// List returns the newest records first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]prediction.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, origin, forecast_date, request, result, created_at
		FROM prediction_history
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []prediction.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close releases the pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (prediction.Record, error) {
	var (
		record  prediction.Record
		date    sql.NullString
		request []byte
		result  []byte
	)
	if err := row.Scan(&record.ID, &record.Origin, &date, &request, &result, &record.CreatedAt); err != nil {
		return prediction.Record{}, err
	}
	if date.Valid {
		record.Date = date.String
	}
	if err := json.Unmarshal(request, &record.Request); err != nil {
		return prediction.Record{}, fmt.Errorf("decode request %s: %w", record.ID, err)
	}
	if err := json.Unmarshal(result, &record.Result); err != nil {
		return prediction.Record{}, fmt.Errorf("decode result %s: %w", record.ID, err)
	}
	return record, nil
}

var _ prediction.HistoryRepository = (*PostgresRepository)(nil)
