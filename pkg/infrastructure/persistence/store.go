// Package persistence provides SQLite storage for run outcomes and
// resource transactions.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/vsinha/clem/pkg/application/dto"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

const dateLayout = "2006-01-02"

// Store wraps a SQLite connection holding every run's results
type Store struct {
	conn *sqlx.DB
}

var _ repositories.OutcomeRepository = (*Store)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		timesteps INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		timestep TEXT NOT NULL,
		activity_id TEXT NOT NULL,
		activity_name TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shortfalls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		outcome_id INTEGER NOT NULL REFERENCES outcomes(id),
		request_id TEXT NOT NULL,
		resource TEXT NOT NULL,
		category TEXT NOT NULL,
		relates_to TEXT NOT NULL,
		required REAL NOT NULL,
		available REAL NOT NULL,
		provided REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		date TEXT NOT NULL,
		resource TEXT NOT NULL,
		activity TEXT NOT NULL,
		category TEXT NOT NULL,
		tag TEXT NOT NULL,
		gain REAL NOT NULL,
		loss REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id, timestep);
	CREATE INDEX IF NOT EXISTS idx_shortfalls_outcome ON shortfalls(outcome_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_run ON transactions(run_id, date);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveRun records the run header once a run has finished
func (s *Store) SaveRun(ctx context.Context, result *dto.RunResult) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, start_date, end_date, timesteps, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		result.RunID.String(), result.Start.Format(dateLayout), result.End.Format(dateLayout),
		result.Timesteps, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// SaveOutcomes writes one timestep's outcomes and their shortfalls
func (s *Store) SaveOutcomes(ctx context.Context, outcomes []repositories.ActivityOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, o := range outcomes {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, timestep, activity_id, activity_name, status, message)
			VALUES (?, ?, ?, ?, ?, ?)`,
			o.RunID.String(), o.Timestep.Format(dateLayout), o.ActivityID.String(),
			o.ActivityName, o.Status.String(), o.Message,
		)
		if err != nil {
			return fmt.Errorf("insert outcome for [%s]: %w", o.ActivityName, err)
		}
		outcomeID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, req := range o.Shortfalls {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO shortfalls
				(outcome_id, request_id, resource, category, relates_to, required, available, provided)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				outcomeID, req.ID.String(), req.ResourceTypeName, req.Category, req.RelatesTo,
				req.Required, req.Available, req.Provided,
			)
			if err != nil {
				return fmt.Errorf("insert shortfall for [%s]: %w", o.ActivityName, err)
			}
		}
	}

	return tx.Commit()
}

// SaveTransactions writes pool transactions for a run
func (s *Store) SaveTransactions(ctx context.Context, runID uuid.UUID, txs []repositories.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO transactions
		(run_id, date, resource, activity, category, tag, gain, loss)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx, runID.String(), t.Date.Format(dateLayout),
			t.Resource, t.Activity, t.Category, t.Tag, t.Gain, t.Loss); err != nil {
			return fmt.Errorf("insert transaction for [%s]: %w", t.Resource, err)
		}
	}

	return tx.Commit()
}

type outcomeRow struct {
	ID           int64  `db:"id"`
	Timestep     string `db:"timestep"`
	ActivityID   string `db:"activity_id"`
	ActivityName string `db:"activity_name"`
	Status       string `db:"status"`
	Message      string `db:"message"`
}

type shortfallRow struct {
	OutcomeID int64   `db:"outcome_id"`
	RequestID string  `db:"request_id"`
	Resource  string  `db:"resource"`
	Category  string  `db:"category"`
	RelatesTo string  `db:"relates_to"`
	Required  float64 `db:"required"`
	Available float64 `db:"available"`
	Provided  float64 `db:"provided"`
}

type transactionRow struct {
	Date     string  `db:"date"`
	Resource string  `db:"resource"`
	Activity string  `db:"activity"`
	Category string  `db:"category"`
	Tag      string  `db:"tag"`
	Gain     float64 `db:"gain"`
	Loss     float64 `db:"loss"`
}

// GetOutcomes returns a run's outcomes in timestep then execution order
func (s *Store) GetOutcomes(ctx context.Context, runID uuid.UUID) ([]repositories.ActivityOutcome, error) {
	var rows []outcomeRow
	if err := s.conn.SelectContext(ctx, &rows,
		`SELECT id, timestep, activity_id, activity_name, status, message
		FROM outcomes WHERE run_id = ? ORDER BY timestep, id`, runID.String()); err != nil {
		return nil, fmt.Errorf("select outcomes: %w", err)
	}

	var shortRows []shortfallRow
	if err := s.conn.SelectContext(ctx, &shortRows,
		`SELECT s.outcome_id, s.request_id, s.resource, s.category, s.relates_to,
			s.required, s.available, s.provided
		FROM shortfalls s JOIN outcomes o ON o.id = s.outcome_id
		WHERE o.run_id = ? ORDER BY s.id`, runID.String()); err != nil {
		return nil, fmt.Errorf("select shortfalls: %w", err)
	}
	byOutcome := make(map[int64][]entities.ResourceRequest)
	for _, r := range shortRows {
		byOutcome[r.OutcomeID] = append(byOutcome[r.OutcomeID], entities.ResourceRequest{
			ID:               parseUUID(r.RequestID),
			ResourceTypeName: r.Resource,
			Category:         r.Category,
			RelatesTo:        r.RelatesTo,
			Required:         r.Required,
			Available:        r.Available,
			Provided:         r.Provided,
		})
	}

	outcomes := make([]repositories.ActivityOutcome, 0, len(rows))
	for _, r := range rows {
		timestep, err := time.Parse(dateLayout, r.Timestep)
		if err != nil {
			return nil, fmt.Errorf("outcome %d: %w", r.ID, err)
		}
		status, ok := entities.ParseActivityStatus(r.Status)
		if !ok {
			return nil, fmt.Errorf("outcome %d: unknown status %q", r.ID, r.Status)
		}
		activityID := parseUUID(r.ActivityID)
		shortfalls := byOutcome[r.ID]
		for i := range shortfalls {
			shortfalls[i].ActivityID = activityID
			shortfalls[i].ActivityName = r.ActivityName
		}
		outcomes = append(outcomes, repositories.ActivityOutcome{
			RunID:        runID,
			Timestep:     timestep,
			ActivityID:   activityID,
			ActivityName: r.ActivityName,
			Status:       status,
			Message:      r.Message,
			Shortfalls:   shortfalls,
		})
	}
	return outcomes, nil
}

// GetTransactions returns a run's transactions in insertion order
func (s *Store) GetTransactions(ctx context.Context, runID uuid.UUID) ([]repositories.Transaction, error) {
	var rows []transactionRow
	if err := s.conn.SelectContext(ctx, &rows,
		`SELECT date, resource, activity, category, tag, gain, loss
		FROM transactions WHERE run_id = ? ORDER BY id`, runID.String()); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	txs := make([]repositories.Transaction, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, err
		}
		txs = append(txs, repositories.Transaction{
			Date: date, Resource: r.Resource, Activity: r.Activity,
			Category: r.Category, Tag: r.Tag, Gain: r.Gain, Loss: r.Loss,
		})
	}
	return txs, nil
}

// RunIDs returns stored runs, most recent first
func (s *Store) RunIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []string
	if err := s.conn.SelectContext(ctx, &ids, "SELECT run_id FROM runs ORDER BY created_at DESC, run_id"); err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		out = append(out, parseUUID(id))
	}
	return out, nil
}

func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
