package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository provides access to analysis reports
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new reports repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "reports").Logger(),
	}
}

// Insert writes a new report
func (r *Repository) Insert(ctx context.Context, rep Report) error {
	var snapshot interface{}
	if len(rep.MarketSnapshot) > 0 {
		snapshot = string(rep.MarketSnapshot)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO analysis_reports (id, user_id, title, report_type, content, market_snapshot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.UserID, rep.Title, rep.ReportType, rep.Content, snapshot,
		rep.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// ListByUser returns the owner's reports, newest first, optionally filtered
// by report type
func (r *Repository) ListByUser(ctx context.Context, userID, reportType string) ([]Report, error) {
	query := `SELECT id, user_id, title, report_type, content, market_snapshot, created_at
		FROM analysis_reports WHERE user_id = ?`
	args := []interface{}{userID}
	if reportType != "" {
		query += ` AND report_type = ?`
		args = append(args, reportType)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var list []Report
	for rows.Next() {
		var rep Report
		var snapshot sql.NullString
		var createdAt string

		if err := rows.Scan(&rep.ID, &rep.UserID, &rep.Title, &rep.ReportType,
			&rep.Content, &snapshot, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		if snapshot.Valid {
			rep.MarketSnapshot = json.RawMessage(snapshot.String)
		}
		if rep.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
		}

		list = append(list, rep)
	}

	return list, rows.Err()
}
