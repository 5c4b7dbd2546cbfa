package costs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const itemColumns = `id, user_id, name, description, amount, currency, frequency,
	category, start_date, end_date, is_active, created_at, updated_at`

// Repository provides access to cost items
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new costs repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "costs").Logger(),
	}
}

// Insert writes a new cost item
func (r *Repository) Insert(ctx context.Context, item Item) error {
	query := `INSERT INTO cost_items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var endDate interface{}
	if item.EndDate != nil {
		endDate = item.EndDate.UTC().Format(time.RFC3339)
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.Name, item.Description, item.Amount.String(),
		item.Currency, string(item.Frequency), item.Category,
		item.StartDate.UTC().Format(time.RFC3339), endDate,
		item.IsActive,
		item.CreatedAt.UTC().Format(time.RFC3339),
		item.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert cost item: %w", err)
	}

	return nil
}

// ListByUser returns the owner's cost items, newest first. With activeOnly
// set, ended items are excluded.
func (r *Repository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM cost_items WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// End deactivates a cost item, recording when the expense stopped. Returns
// sql.ErrNoRows when the item does not exist or belongs to another owner.
func (r *Repository) End(ctx context.Context, userID, itemID string, endedAt time.Time) error {
	query := `UPDATE cost_items
		SET is_active = 0, end_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		endedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to end cost item: %w", err)
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

func scanItem(rows *sql.Rows) (Item, error) {
	var item Item
	var description, category sql.NullString
	var amount, startDate, createdAt, updatedAt string
	var endDate sql.NullString
	var frequency string

	if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &description, &amount,
		&item.Currency, &frequency, &category, &startDate, &endDate,
		&item.IsActive, &createdAt, &updatedAt); err != nil {
		return Item{}, fmt.Errorf("failed to scan cost item: %w", err)
	}

	var err error
	if item.Amount, err = decimal.NewFromString(amount); err != nil {
		return Item{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	item.Description = description.String
	item.Category = category.String
	item.Frequency = Frequency(frequency)

	if item.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return Item{}, fmt.Errorf("invalid start_date %q: %w", startDate, err)
	}
	if endDate.Valid {
		t, err := time.Parse(time.RFC3339, endDate.String)
		if err != nil {
			return Item{}, fmt.Errorf("invalid end_date %q: %w", endDate.String, err)
		}
		item.EndDate = &t
	}
	if item.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Item{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if item.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Item{}, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}

	return item, nil
}
