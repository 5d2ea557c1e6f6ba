package selection

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockpick/pkg/database"
)

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS selection;

	CREATE TABLE IF NOT EXISTS selection.runs (
		run_id       TEXT PRIMARY KEY,
		trade_date   DATE NOT NULL,
		config_path  TEXT NOT NULL,
		config_hash  TEXT NOT NULL,
		requested    INT NOT NULL,
		loaded       INT NOT NULL,
		failures     INT NOT NULL,
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS selection.run_results (
		run_id        TEXT NOT NULL REFERENCES selection.runs(run_id) ON DELETE CASCADE,
		seq           INT NOT NULL,
		alias         TEXT NOT NULL,
		selector_type TEXT NOT NULL,
		trade_date    DATE NOT NULL,
		picks         TEXT[] NOT NULL,
		pick_count    INT NOT NULL,
		error         TEXT NOT NULL DEFAULT '',
		export_path   TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_run_results_date_alias
		ON selection.run_results (trade_date, alias);
`

// Repository handles selection run persistence
// ⭐ SSOT: 선택 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RunRecord is a stored run header
type RunRecord struct {
	RunID      string    `json:"run_id"`
	TradeDate  time.Time `json:"trade_date"`
	ConfigPath string    `json:"config_path"`
	ConfigHash string    `json:"config_hash"`
	Requested  int       `json:"requested"`
	Loaded     int       `json:"loaded"`
	Failures   int       `json:"failures"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// StoredResult is a stored selector result
type StoredResult struct {
	RunID      string    `json:"run_id"`
	Alias      string    `json:"alias"`
	Type       string    `json:"type"`
	TradeDate  time.Time `json:"trade_date"`
	Picks      []string  `json:"picks"`
	Error      string    `json:"error,omitempty"`
	ExportPath string    `json:"export_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// EnsureSchema creates the selection tables when missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	return database.ApplySchema(ctx, r.pool, "selection", schemaSQL)
}

// SaveRun stores a run and all of its results in one transaction
func (r *Repository) SaveRun(ctx context.Context, summary *RunSummary) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO selection.runs (
				run_id, trade_date, config_path, config_hash,
				requested, loaded, failures, started_at, finished_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			summary.RunID, summary.TradeDate, summary.ConfigPath, summary.ConfigHash,
			summary.Requested, summary.Loaded, len(summary.Failures), summary.StartedAt, summary.FinishedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		query := `
			INSERT INTO selection.run_results (
				run_id, seq, alias, selector_type, trade_date,
				picks, pick_count, error, export_path
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		batch := &pgx.Batch{}
		for i, res := range summary.Results {
			picks := res.Picks
			if picks == nil {
				picks = []string{}
			}
			batch.Queue(query,
				summary.RunID, i, res.Alias, res.Type, res.TradeDate,
				picks, len(picks), res.Error, res.ExportPath,
			)
		}

		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("failed to insert run results: %w", err)
			}
		}
		return nil
	})
}

// GetPicks returns stored results of a trade date, newest first.
// An empty alias matches every selector.
func (r *Repository) GetPicks(ctx context.Context, date time.Time, alias string) ([]StoredResult, error) {
	query := `
		SELECT run_id, alias, selector_type, trade_date, picks, error, export_path, created_at
		FROM selection.run_results
		WHERE trade_date = $1 AND ($2 = '' OR alias = $2)
		ORDER BY created_at DESC, seq
	`

	rows, err := r.pool.Query(ctx, query, date, alias)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer rows.Close()

	results := make([]StoredResult, 0)
	for rows.Next() {
		var res StoredResult
		if err := rows.Scan(
			&res.RunID, &res.Alias, &res.Type, &res.TradeDate,
			&res.Picks, &res.Error, &res.ExportPath, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan picks: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate picks: %w", err)
	}

	return results, nil
}

// ListRuns returns the most recent runs
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, trade_date, config_path, config_hash,
		       requested, loaded, failures, started_at, finished_at
		FROM selection.runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RunRecord, error) {
		var rec RunRecord
		err := row.Scan(
			&rec.RunID, &rec.TradeDate, &rec.ConfigPath, &rec.ConfigHash,
			&rec.Requested, &rec.Loaded, &rec.Failures, &rec.StartedAt, &rec.FinishedAt,
		)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}

	return runs, nil
}
