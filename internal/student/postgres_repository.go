package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// PostgresRepository implements Repository on a single jsonb table, for
// deployments that have Postgres but no Redis.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed student config repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS student_configs (
        phone_number_id text PRIMARY KEY,
        config jsonb NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("ensure student_configs table: %w", err)
	}
	return nil
}

// Get fetches and decodes the record stored under the phone number id.
func (r *PostgresRepository) Get(ctx context.Context, phoneNumberID string) (Config, error) {
	row := r.db.QueryRow(ctx, `SELECT config FROM student_configs WHERE phone_number_id = $1`, phoneNumberID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Config{}, ErrNotFound
		}
		return Config{}, fmt.Errorf("get student config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode student config: %w", err)
	}
	return cfg, nil
}

// Create inserts a new record; the primary key enforces uniqueness.
func (r *PostgresRepository) Create(ctx context.Context, cfg Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode student config: %w", err)
	}

	_, err = r.db.Exec(ctx, `INSERT INTO student_configs (phone_number_id, config) VALUES ($1, $2)`,
		cfg.PhoneNumberID, payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create student config: %w", err)
	}
	return nil
}

// Put upserts the record for the config's phone number id.
func (r *PostgresRepository) Put(ctx context.Context, cfg Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode student config: %w", err)
	}

	_, err = r.db.Exec(ctx, `INSERT INTO student_configs (phone_number_id, config) VALUES ($1, $2)
        ON CONFLICT (phone_number_id) DO UPDATE SET config = EXCLUDED.config`,
		cfg.PhoneNumberID, payload)
	if err != nil {
		return fmt.Errorf("put student config: %w", err)
	}
	return nil
}
