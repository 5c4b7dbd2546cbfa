package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HoldingRepository handles holding database operations.
// Mutations take a *sql.Tx so the service can wrap the read-modify-write of a
// holding and the transaction insert in a single database transaction.
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "holding").Logger(),
	}
}

const holdingColumns = `id, user_id, coin_id, symbol, name, bucket, quantity,
	avg_buy_price, cost_basis, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(row rowScanner) (Holding, error) {
	var h Holding
	var bucket string
	var quantity, avgPrice, costBasis string
	var isActive int
	var createdAt, updatedAt string

	err := row.Scan(&h.ID, &h.UserID, &h.CoinID, &h.Symbol, &h.Name, &bucket,
		&quantity, &avgPrice, &costBasis, &isActive, &createdAt, &updatedAt)
	if err != nil {
		return Holding{}, err
	}

	h.Bucket = Bucket(bucket)
	h.IsActive = isActive != 0

	if h.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return Holding{}, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	if h.AvgBuyPrice, err = decimal.NewFromString(avgPrice); err != nil {
		return Holding{}, fmt.Errorf("invalid avg_buy_price %q: %w", avgPrice, err)
	}
	if h.CostBasis, err = decimal.NewFromString(costBasis); err != nil {
		return Holding{}, fmt.Errorf("invalid cost_basis %q: %w", costBasis, err)
	}
	if h.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Holding{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if h.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Holding{}, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}

	return h, nil
}

// GetTx loads the holding for (user, coin, bucket) inside a transaction.
// Returns sql.ErrNoRows when no holding exists.
func (r *HoldingRepository) GetTx(tx *sql.Tx, userID, coinID string, bucket Bucket) (Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings
		WHERE user_id = ? AND coin_id = ? AND bucket = ?`
	return scanHolding(tx.QueryRow(query, userID, coinID, string(bucket)))
}

// InsertTx inserts a new holding inside a transaction
func (r *HoldingRepository) InsertTx(tx *sql.Tx, h Holding) error {
	query := `INSERT INTO holdings (id, user_id, coin_id, symbol, name, bucket,
		quantity, avg_buy_price, cost_basis, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	isActive := 0
	if h.IsActive {
		isActive = 1
	}

	_, err := tx.Exec(query, h.ID, h.UserID, h.CoinID, h.Symbol, h.Name,
		string(h.Bucket), h.Quantity.String(), h.AvgBuyPrice.String(),
		h.CostBasis.String(), isActive,
		h.CreatedAt.UTC().Format(time.RFC3339), h.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}

	return nil
}

// UpdateTx writes back quantity, average price, cost basis and active flag
// for an existing holding inside a transaction.
func (r *HoldingRepository) UpdateTx(tx *sql.Tx, h Holding) error {
	query := `UPDATE holdings SET quantity = ?, avg_buy_price = ?, cost_basis = ?,
		is_active = ?, updated_at = ? WHERE id = ?`

	isActive := 0
	if h.IsActive {
		isActive = 1
	}

	result, err := tx.Exec(query, h.Quantity.String(), h.AvgBuyPrice.String(),
		h.CostBasis.String(), isActive, h.UpdatedAt.UTC().Format(time.RFC3339), h.ID)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("holding %s not found", h.ID)
	}

	return nil
}

// GetByUser returns all holdings for a user. When activeOnly is true only
// positions with remaining quantity are returned.
func (r *HoldingRepository) GetByUser(userID string, activeOnly bool) ([]Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}
