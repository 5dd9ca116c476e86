package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rotisserie/eris"

	"estimator/internal/model"
)

const estimateColumns = `
	id, price, range_low, range_high, input, features,
	model_columns, model_values, model_name, model_kind,
	schema_missing, schema_extra, created_at`

// PostgresRepository stores the prediction log
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to database")
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "failed to ping database")
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection pool
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveEstimate inserts one estimate into the log
func (r *PostgresRepository) SaveEstimate(ctx context.Context, e *model.EstimateLog) error {
	query := `
		INSERT INTO estimates (` + estimateColumns + `)
		VALUES (
			:id, :price, :range_low, :range_high, :input, :features,
			:model_columns, :model_values, :model_name, :model_kind,
			:schema_missing, :schema_extra, :created_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return eris.Wrap(err, "failed to save estimate")
	}
	return nil
}

// GetEstimate retrieves one estimate. A missing estimate is not an error:
// it returns nil, nil.
func (r *PostgresRepository) GetEstimate(ctx context.Context, id uuid.UUID) (*model.EstimateLog, error) {
	var e model.EstimateLog
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE id = $1`
	err := r.db.GetContext(ctx, &e, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "failed to get estimate")
	}
	return &e, nil
}

// RecentEstimates returns the newest estimates first
func (r *PostgresRepository) RecentEstimates(ctx context.Context, limit int) ([]model.EstimateLog, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates ORDER BY created_at DESC LIMIT $1`
	var out []model.EstimateLog
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, eris.Wrap(err, "failed to list recent estimates")
	}
	return out, nil
}

// SimilarEstimates returns the estimates nearest to vec by L2 distance over
// the encoded features, excluding the estimate with id exclude.
func (r *PostgresRepository) SimilarEstimates(ctx context.Context, vec pgvector.Vector, exclude uuid.UUID, limit int) ([]model.SimilarLog, error) {
	query := `
		SELECT ` + estimateColumns + `, features <-> $1 AS distance
		FROM estimates
		WHERE id <> $2
		ORDER BY features <-> $1
		LIMIT $3
	`
	var out []model.SimilarLog
	if err := r.db.SelectContext(ctx, &out, query, vec, exclude, limit); err != nil {
		return nil, eris.Wrap(err, "failed to search similar estimates")
	}
	return out, nil
}
