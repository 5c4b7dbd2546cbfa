package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionRepository handles transaction database operations.
// Transactions are append-only; there are no update or delete methods.
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transaction").Logger(),
	}
}

// InsertTx appends a transaction row inside a database transaction
func (r *TransactionRepository) InsertTx(tx *sql.Tx, t Transaction) error {
	query := `INSERT INTO transactions (id, user_id, holding_id, coin_id, symbol,
		type, bucket, quantity, price_per_unit, total_value, fee, realized_pnl,
		notes, traded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var realizedPnl interface{}
	if t.RealizedPnl != nil {
		realizedPnl = t.RealizedPnl.String()
	}

	_, err := tx.Exec(query, t.ID, t.UserID, t.HoldingID, t.CoinID, t.Symbol,
		string(t.Type), string(t.Bucket), t.Quantity.String(), t.PricePerUnit.String(),
		t.TotalValue.String(), t.Fee.String(), realizedPnl, t.Notes,
		t.TradedAt.UTC().Format(time.RFC3339), t.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// ListFilter narrows ListByUser results. Zero values mean "no filter".
type ListFilter struct {
	CoinID string
	Type   TxType
	Limit  int
}

// ListByUser returns a user's transactions, newest first
func (r *TransactionRepository) ListByUser(userID string, filter ListFilter) ([]Transaction, error) {
	query := `SELECT id, user_id, holding_id, coin_id, symbol, type, bucket,
		quantity, price_per_unit, total_value, fee, realized_pnl, notes,
		traded_at, created_at
		FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}

	if filter.CoinID != "" {
		query += " AND coin_id = ?"
		args = append(args, filter.CoinID)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}

	query += " ORDER BY traded_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// TotalRealizedPnl sums realized P&L across all of a user's SELL transactions
func (r *TransactionRepository) TotalRealizedPnl(userID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(CAST(realized_pnl AS REAL)), 0)
		FROM transactions WHERE user_id = ? AND realized_pnl IS NOT NULL`

	var total float64
	if err := r.db.QueryRow(query, userID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum realized pnl: %w", err)
	}

	return decimal.NewFromFloat(total), nil
}

func scanTransaction(rows *sql.Rows) (Transaction, error) {
	var t Transaction
	var holdingID, notes, realizedPnl sql.NullString
	var txType, bucket string
	var quantity, price, totalValue, fee string
	var tradedAt, createdAt string

	err := rows.Scan(&t.ID, &t.UserID, &holdingID, &t.CoinID, &t.Symbol, &txType,
		&bucket, &quantity, &price, &totalValue, &fee, &realizedPnl, &notes,
		&tradedAt, &createdAt)
	if err != nil {
		return Transaction{}, err
	}

	t.HoldingID = holdingID.String
	t.Notes = notes.String
	t.Type = TxType(txType)
	t.Bucket = Bucket(bucket)

	if t.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return Transaction{}, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	if t.PricePerUnit, err = decimal.NewFromString(price); err != nil {
		return Transaction{}, fmt.Errorf("invalid price_per_unit %q: %w", price, err)
	}
	if t.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
		return Transaction{}, fmt.Errorf("invalid total_value %q: %w", totalValue, err)
	}
	if t.Fee, err = decimal.NewFromString(fee); err != nil {
		return Transaction{}, fmt.Errorf("invalid fee %q: %w", fee, err)
	}
	if realizedPnl.Valid {
		pnl, err := decimal.NewFromString(realizedPnl.String)
		if err != nil {
			return Transaction{}, fmt.Errorf("invalid realized_pnl %q: %w", realizedPnl.String, err)
		}
		t.RealizedPnl = &pnl
	}
	if t.TradedAt, err = time.Parse(time.RFC3339, tradedAt); err != nil {
		return Transaction{}, fmt.Errorf("invalid traded_at %q: %w", tradedAt, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Transaction{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}

	return t, nil
}
