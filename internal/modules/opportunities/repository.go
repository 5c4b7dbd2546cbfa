package opportunities

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const opportunityColumns = `id, user_id, coin_id, symbol, name, thesis, status, created_at, updated_at`

// Repository provides access to opportunities
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new opportunities repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "opportunities").Logger(),
	}
}

// Insert writes a new opportunity
func (r *Repository) Insert(ctx context.Context, o Opportunity) error {
	query := `INSERT INTO opportunities (` + opportunityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.UserID, o.CoinID, o.Symbol, o.Name, o.Thesis, o.Status,
		o.CreatedAt.UTC().Format(time.RFC3339),
		o.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert opportunity: %w", err)
	}

	return nil
}

// ListByUser returns the owner's opportunities, newest first, optionally
// filtered by status
func (r *Repository) ListByUser(ctx context.Context, userID, status string) ([]Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var list []Opportunity
	for rows.Next() {
		var o Opportunity
		var name, thesis sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&o.ID, &o.UserID, &o.CoinID, &o.Symbol, &name, &thesis,
			&o.Status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}

		o.Name = name.String
		o.Thesis = thesis.String
		if o.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
		}
		if o.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
		}

		list = append(list, o)
	}

	return list, rows.Err()
}

// SetStatus moves an opportunity to a new status. Returns sql.ErrNoRows when
// it does not exist or belongs to another owner.
func (r *Repository) SetStatus(ctx context.Context, userID, opportunityID, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE opportunities SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), opportunityID, userID)
	if err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
