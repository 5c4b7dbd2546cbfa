// Package ledger implements the cost-basis ledger: an append-only transaction
// log plus a derived holding per (user, coin, bucket), maintained with
// weighted-average-cost update rules.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is the user-chosen intent classification of a position.
// It is independent of the actual holding duration.
type Bucket string

const (
	BucketLongTerm  Bucket = "long-term"
	BucketShortTerm Bucket = "short-term"
)

// Valid reports whether the bucket is one of the two known values.
func (b Bucket) Valid() bool {
	return b == BucketLongTerm || b == BucketShortTerm
}

// TxType is the trade direction.
type TxType string

const (
	TxBuy  TxType = "BUY"
	TxSell TxType = "SELL"
)

// Valid reports whether the transaction type is BUY or SELL.
func (t TxType) Valid() bool {
	return t == TxBuy || t == TxSell
}

// Holding is the derived current position for one (user, coin, bucket) triple.
// quantity == 0 implies IsActive == false. Fully sold positions stay around as
// inactive rows for history; they are never hard-deleted.
type Holding struct {
	ID          string
	UserID      string
	CoinID      string
	Symbol      string
	Name        string
	Bucket      Bucket
	Quantity    decimal.Decimal
	AvgBuyPrice decimal.Decimal
	CostBasis   decimal.Decimal
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction is one immutable trade event. Rows are never mutated or deleted
// after creation; the holdings table is derived from this audit trail.
type Transaction struct {
	ID           string
	UserID       string
	HoldingID    string
	CoinID       string
	Symbol       string
	Type         TxType
	Bucket       Bucket
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	TotalValue   decimal.Decimal
	Fee          decimal.Decimal
	RealizedPnl  *decimal.Decimal // nil for BUY, set for SELL
	Notes        string
	TradedAt     time.Time
	CreatedAt    time.Time
}
