package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fula-deployer/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

// EnsureSchema creates the journal tables when they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	slog.Debug("Journal schema ready")
	return nil
}

// SaveDeployment inserts the record of a new run
func (r *PostgresRepository) SaveDeployment(ctx context.Context, d *models.Deployment) error {
	query := `
		INSERT INTO deployments (
			run_id, network, state, code_hash, proxy_code_hash, proxy_address,
			deployer, initial_supply, error, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, CAST($8::text AS NUMERIC), $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		d.RunID,
		d.Network,
		d.State,
		d.CodeHash,
		d.ProxyCodeHash,
		d.ProxyAddress,
		d.Deployer,
		d.InitialSupply,
		d.Error,
		d.StartedAt,
		d.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save deployment: %w", err)
	}

	return nil
}

// UpdateDeploymentState writes the state and outputs of a run
func (r *PostgresRepository) UpdateDeploymentState(ctx context.Context, d *models.Deployment) error {
	query := `
		UPDATE deployments SET
			state = $2,
			code_hash = $3,
			proxy_code_hash = $4,
			proxy_address = $5,
			error = $6,
			finished_at = $7
		WHERE run_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		d.RunID,
		d.State,
		d.CodeHash,
		d.ProxyCodeHash,
		d.ProxyAddress,
		d.Error,
		d.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update deployment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deployment %s: %w", d.RunID, ErrNotFound)
	}

	return nil
}

const deploymentColumns = `
	run_id, network, state, code_hash, proxy_code_hash, proxy_address,
	deployer, initial_supply::text, error, started_at, finished_at
`

// GetDeployment returns the record of one run
func (r *PostgresRepository) GetDeployment(ctx context.Context, runID uuid.UUID) (*models.Deployment, error) {
	query := `SELECT ` + deploymentColumns + ` FROM deployments WHERE run_id = $1`

	d, err := scanDeployment(r.pool.QueryRow(ctx, query, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deployment %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}

	return d, nil
}

// ListDeployments lists runs newest first, optionally for one network
func (r *PostgresRepository) ListDeployments(ctx context.Context, network string, limit, offset int) ([]*models.Deployment, error) {
	query := `
		SELECT ` + deploymentColumns + `
		FROM deployments
		WHERE ($1 = '' OR network = $1)
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, network, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	var deployments []*models.Deployment

	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		deployments = append(deployments, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deployments: %w", err)
	}

	return deployments, nil
}

// CountDeployments counts runs, optionally for one network
func (r *PostgresRepository) CountDeployments(ctx context.Context, network string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM deployments WHERE ($1 = '' OR network = $1)`, network).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count deployments: %w", err)
	}
	return count, nil
}

// SaveStep appends one step record to a run
func (r *PostgresRepository) SaveStep(ctx context.Context, step *models.DeploymentStep) error {
	detail := step.Detail
	if detail == nil {
		detail = map[string]interface{}{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal detail: %w", err)
	}

	query := `
		INSERT INTO deployment_steps (
			run_id, step, outcome, tx_hash, duration_ms, error, detail, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		step.RunID,
		step.Step,
		step.Outcome,
		step.TxHash,
		step.Duration.Milliseconds(),
		step.Error,
		detailJSON,
		step.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}

	return nil
}

// ListSteps returns the steps of a run in the order they were recorded
func (r *PostgresRepository) ListSteps(ctx context.Context, runID uuid.UUID) ([]*models.DeploymentStep, error) {
	query := `
		SELECT run_id, step, outcome, tx_hash, duration_ms, error, detail, recorded_at
		FROM deployment_steps
		WHERE run_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []*models.DeploymentStep

	for rows.Next() {
		var step models.DeploymentStep
		var durationMs int64
		var detailJSON []byte

		err := rows.Scan(
			&step.RunID,
			&step.Step,
			&step.Outcome,
			&step.TxHash,
			&durationMs,
			&step.Error,
			&detailJSON,
			&step.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		step.Duration = time.Duration(durationMs) * time.Millisecond
		if err := json.Unmarshal(detailJSON, &step.Detail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
		}
		if len(step.Detail) == 0 {
			step.Detail = nil
		}

		steps = append(steps, &step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

// Ping checks if the database connection is alive
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanDeployment(row pgx.Row) (*models.Deployment, error) {
	var d models.Deployment
	err := row.Scan(
		&d.RunID,
		&d.Network,
		&d.State,
		&d.CodeHash,
		&d.ProxyCodeHash,
		&d.ProxyAddress,
		&d.Deployer,
		&d.InitialSupply,
		&d.Error,
		&d.StartedAt,
		&d.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
