package snapshots

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const snapshotColumns = `id, user_id, snapshot_date, total_value, total_cost_basis,
	total_unrealized_pnl, total_realized_pnl, long_term_value, short_term_value,
	total_costs, created_at`

// Repository provides access to portfolio snapshots
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshots repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Upsert writes one snapshot, replacing any earlier capture for the same
// owner and date. This is what makes the daily job safe to rerun.
func (r *Repository) Upsert(ctx context.Context, s Snapshot) error {
	query := `INSERT INTO portfolio_snapshots (` + snapshotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, snapshot_date) DO UPDATE SET
			total_value = excluded.total_value,
			total_cost_basis = excluded.total_cost_basis,
			total_unrealized_pnl = excluded.total_unrealized_pnl,
			total_realized_pnl = excluded.total_realized_pnl,
			long_term_value = excluded.long_term_value,
			short_term_value = excluded.short_term_value,
			total_costs = excluded.total_costs`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.SnapshotDate, s.TotalValue, s.TotalCostBasis,
		s.TotalUnrealizedPnl, s.TotalRealizedPnl, s.LongTermValue, s.ShortTermValue,
		s.TotalCosts, s.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

// ListByUser returns the owner's snapshots, oldest first, capped at limit
// days back when limit is positive
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM portfolio_snapshots
		WHERE user_id = ? ORDER BY snapshot_date ASC`
	args := []interface{}{userID}
	if limit > 0 {
		// Take the newest N, then present them oldest first.
		query = `SELECT ` + snapshotColumns + ` FROM (
			SELECT ` + snapshotColumns + ` FROM portfolio_snapshots
			WHERE user_id = ? ORDER BY snapshot_date DESC LIMIT ?
		) ORDER BY snapshot_date ASC`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var list []Snapshot
	for rows.Next() {
		var s Snapshot
		var createdAt string

		if err := rows.Scan(&s.ID, &s.UserID, &s.SnapshotDate, &s.TotalValue,
			&s.TotalCostBasis, &s.TotalUnrealizedPnl, &s.TotalRealizedPnl,
			&s.LongTermValue, &s.ShortTermValue, &s.TotalCosts, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
		}

		list = append(list, s)
	}

	return list, rows.Err()
}

// ActiveUserIDs returns every owner with at least one active holding.
// The daily job snapshots each of them.
func (r *Repository) ActiveUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM holdings WHERE is_active = 1 ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, id)
	}

	return users, rows.Err()
}
