package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/avgerinos/coinfolio/internal/database"
)

// ErrNoHolding is returned when a SELL is recorded against a (user, coin, bucket)
// triple with no existing holding. The ledger refuses to create speculative or
// negative positions.
var ErrNoHolding = errors.New("no holding to sell")

// ErrInvalidInput is returned for non-positive quantities or prices.
var ErrInvalidInput = errors.New("quantity and price must be positive")

// RecordRequest describes one trade to record.
type RecordRequest struct {
	CoinID       string
	Symbol       string
	Name         string
	Type         TxType
	Bucket       Bucket
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	Fee          decimal.Decimal
	Notes        string
	TradedAt     time.Time // zero value means "now"
}

// Service orchestrates ledger mutations: the weighted-average-cost update of
// at most one holding plus the append of exactly one transaction row, both in
// a single database transaction.
type Service struct {
	db          *sql.DB
	holdingRepo *HoldingRepository
	txRepo      *TransactionRepository
	log         zerolog.Logger
}

// NewService creates a new ledger service
func NewService(db *sql.DB, holdingRepo *HoldingRepository, txRepo *TransactionRepository, log zerolog.Logger) *Service {
	return &Service{
		db:          db,
		holdingRepo: holdingRepo,
		txRepo:      txRepo,
		log:         log.With().Str("service", "ledger").Logger(),
	}
}

// RecordTransaction records a BUY or SELL for the given owner.
//
// BUY creates or grows the holding at the blended average cost:
// newCost = oldCost + qty*price + fee, newAvg = newCost / newQty.
//
// SELL realizes P&L at the pre-sale average cost and draws down quantity and
// cost basis proportionally. The average buy price of the remainder is never
// changed by a SELL. Overselling clamps quantity and cost basis to zero.
//
// The holding read-modify-write and the transaction append run inside one
// database transaction, so concurrent trades against the same holding
// serialize instead of racing.
func (s *Service) RecordTransaction(ctx context.Context, userID string, req RecordRequest) (Transaction, error) {
	if userID == "" {
		return Transaction{}, errors.New("missing owner id")
	}
	if !req.Type.Valid() {
		return Transaction{}, fmt.Errorf("invalid transaction type %q", req.Type)
	}
	if !req.Bucket.Valid() {
		return Transaction{}, fmt.Errorf("invalid bucket %q", req.Bucket)
	}
	if !req.Quantity.IsPositive() || !req.PricePerUnit.IsPositive() {
		return Transaction{}, ErrInvalidInput
	}
	if req.Fee.IsNegative() {
		return Transaction{}, fmt.Errorf("fee must not be negative")
	}

	now := time.Now().UTC()
	tradedAt := req.TradedAt
	if tradedAt.IsZero() {
		tradedAt = now
	}

	totalValue := req.Quantity.Mul(req.PricePerUnit)

	record := Transaction{
		ID:           uuid.New().String(),
		UserID:       userID,
		CoinID:       req.CoinID,
		Symbol:       strings.ToUpper(req.Symbol),
		Type:         req.Type,
		Bucket:       req.Bucket,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		TotalValue:   totalValue,
		Fee:          req.Fee,
		Notes:        req.Notes,
		TradedAt:     tradedAt,
		CreatedAt:    now,
	}

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		holding, err := s.holdingRepo.GetTx(tx, userID, req.CoinID, req.Bucket)
		exists := true
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to load holding: %w", err)
			}
			exists = false
		}

		switch req.Type {
		case TxBuy:
			if exists {
				holding = applyBuy(holding, req.Quantity, totalValue, req.Fee, now)
				if err := s.holdingRepo.UpdateTx(tx, holding); err != nil {
					return err
				}
			} else {
				holding = newHolding(userID, req, totalValue, now)
				if err := s.holdingRepo.InsertTx(tx, holding); err != nil {
					return err
				}
			}

		case TxSell:
			if !exists {
				return ErrNoHolding
			}
			var realized decimal.Decimal
			holding, realized = applySell(holding, req.Quantity, req.PricePerUnit, req.Fee, now)
			record.RealizedPnl = &realized
			if err := s.holdingRepo.UpdateTx(tx, holding); err != nil {
				return err
			}
		}

		record.HoldingID = holding.ID
		return s.txRepo.InsertTx(tx, record)
	})
	if err != nil {
		return Transaction{}, err
	}

	s.log.Info().
		Str("user", userID).
		Str("coin", req.CoinID).
		Str("type", string(req.Type)).
		Str("bucket", string(req.Bucket)).
		Str("quantity", req.Quantity.String()).
		Str("price", req.PricePerUnit.String()).
		Msg("Recorded transaction")

	return record, nil
}

// newHolding creates the initial holding on the first BUY of a triple
func newHolding(userID string, req RecordRequest, totalValue decimal.Decimal, now time.Time) Holding {
	costBasis := totalValue.Add(req.Fee)
	return Holding{
		ID:          uuid.New().String(),
		UserID:      userID,
		CoinID:      req.CoinID,
		Symbol:      strings.ToUpper(req.Symbol),
		Name:        req.Name,
		Bucket:      req.Bucket,
		Quantity:    req.Quantity,
		AvgBuyPrice: costBasis.Div(req.Quantity),
		CostBasis:   costBasis,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// applyBuy folds a purchase into an existing holding at the blended average cost
func applyBuy(h Holding, qty, totalValue, fee decimal.Decimal, now time.Time) Holding {
	newQty := h.Quantity.Add(qty)
	newCost := h.CostBasis.Add(totalValue).Add(fee)

	// qty > 0 is validated upstream, so newQty can only be zero if the stored
	// quantity was negative, which the SELL clamp rules out. Guard anyway.
	newAvg := decimal.Zero
	if newQty.IsPositive() {
		newAvg = newCost.Div(newQty)
	}

	h.Quantity = newQty
	h.AvgBuyPrice = newAvg
	h.CostBasis = newCost
	h.IsActive = true
	h.UpdatedAt = now
	return h
}

// applySell realizes P&L at the pre-sale average cost. The average buy price
// of the remainder is left untouched: selling never re-averages under
// weighted-average-cost accounting.
func applySell(h Holding, qty, price, fee decimal.Decimal, now time.Time) (Holding, decimal.Decimal) {
	realized := price.Sub(h.AvgBuyPrice).Mul(qty).Sub(fee)
	costReduced := h.AvgBuyPrice.Mul(qty)

	newQty := h.Quantity.Sub(qty)
	if newQty.IsNegative() {
		// Oversell clamps to zero rather than rejecting. Known policy choice
		// carried over from the original product.
		newQty = decimal.Zero
	}
	newCost := h.CostBasis.Sub(costReduced)
	if newCost.IsNegative() {
		newCost = decimal.Zero
	}

	h.Quantity = newQty
	h.CostBasis = newCost
	h.IsActive = newQty.IsPositive()
	h.UpdatedAt = now
	return h, realized
}

// Holdings returns the owner's holdings
func (s *Service) Holdings(ctx context.Context, userID string, activeOnly bool) ([]Holding, error) {
	return s.holdingRepo.GetByUser(userID, activeOnly)
}

// Transactions returns the owner's transaction history, newest first
func (s *Service) Transactions(ctx context.Context, userID string, filter ListFilter) ([]Transaction, error) {
	return s.txRepo.ListByUser(userID, filter)
}

// TotalRealizedPnl returns the lifetime realized P&L for the owner
func (s *Service) TotalRealizedPnl(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.txRepo.TotalRealizedPnl(userID)
}
