package proposals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const proposalColumns = `id, user_id, coin_id, symbol, action, bucket,
	confluence_score, signal, thesis, entry_price, stop_loss, target1, target2,
	position_size_pct, time_horizon, max_loss, expected_gain, risk_reward,
	pillar_technical, pillar_narrative, pillar_sentiment, pillar_onchain,
	pillar_macro, pillar_fundamentals, pillar_riskreward, pillar_notes,
	risks, status, founder_decision, decided_at, created_at`

// Repository provides access to trade proposals
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new proposals repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "proposals").Logger(),
	}
}

// Insert writes a new proposal
func (r *Repository) Insert(ctx context.Context, p Proposal) error {
	risks, err := json.Marshal(p.Risks)
	if err != nil {
		return fmt.Errorf("failed to encode risks: %w", err)
	}

	query := `INSERT INTO trade_proposals (` + proposalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var decidedAt interface{}
	if p.DecidedAt != nil {
		decidedAt = p.DecidedAt.UTC().Format(time.RFC3339)
	}

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.CoinID, p.Symbol, p.Action, p.Bucket,
		p.ConfluenceScore, p.Signal, p.Thesis,
		p.EntryPrice, p.StopLoss, p.Target1, p.Target2,
		p.PositionSizePct, p.TimeHorizon, p.MaxLoss, p.ExpectedGain, p.RiskReward,
		p.Pillars.Technical, p.Pillars.Narrative, p.Pillars.Sentiment,
		p.Pillars.OnChain, p.Pillars.Macro, p.Pillars.Fundamentals,
		p.Pillars.RiskReward, p.Pillars.Notes,
		string(risks), p.Status, p.FounderDecision, decidedAt,
		p.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}

	return nil
}

// ListByUser returns the owner's proposals, newest first. With status set,
// only proposals in that status are returned.
func (r *Repository) ListByUser(ctx context.Context, userID, status string) ([]Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM trade_proposals WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}

// Decide moves a pending proposal into approved or rejected, recording the
// decision and when it was made. Returns sql.ErrNoRows when the proposal is
// missing, already decided, or belongs to another owner.
func (r *Repository) Decide(ctx context.Context, userID, proposalID, status, decision string, decidedAt time.Time) error {
	query := `UPDATE trade_proposals
		SET status = ?, founder_decision = ?, decided_at = ?
		WHERE id = ? AND user_id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query,
		status, decision, decidedAt.UTC().Format(time.RFC3339),
		proposalID, userID, StatusPending)
	if err != nil {
		return fmt.Errorf("failed to decide proposal: %w", err)
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

func scanProposal(rows *sql.Rows) (Proposal, error) {
	var p Proposal
	var signal, thesis, timeHorizon, riskReward, pillarNotes, founderDecision sql.NullString
	var entry, stop, target1, target2, sizePct, maxLoss, expectedGain sql.NullFloat64
	var risks, createdAt string
	var decidedAt sql.NullString

	if err := rows.Scan(&p.ID, &p.UserID, &p.CoinID, &p.Symbol, &p.Action, &p.Bucket,
		&p.ConfluenceScore, &signal, &thesis, &entry, &stop, &target1, &target2,
		&sizePct, &timeHorizon, &maxLoss, &expectedGain, &riskReward,
		&p.Pillars.Technical, &p.Pillars.Narrative, &p.Pillars.Sentiment,
		&p.Pillars.OnChain, &p.Pillars.Macro, &p.Pillars.Fundamentals,
		&p.Pillars.RiskReward, &pillarNotes,
		&risks, &p.Status, &founderDecision, &decidedAt, &createdAt); err != nil {
		return Proposal{}, fmt.Errorf("failed to scan proposal: %w", err)
	}

	p.Signal = signal.String
	p.Thesis = thesis.String
	p.TimeHorizon = timeHorizon.String
	p.RiskReward = riskReward.String
	p.Pillars.Notes = pillarNotes.String
	p.FounderDecision = founderDecision.String

	if entry.Valid {
		p.EntryPrice = &entry.Float64
	}
	if stop.Valid {
		p.StopLoss = &stop.Float64
	}
	if target1.Valid {
		p.Target1 = &target1.Float64
	}
	if target2.Valid {
		p.Target2 = &target2.Float64
	}
	if sizePct.Valid {
		p.PositionSizePct = &sizePct.Float64
	}
	if maxLoss.Valid {
		p.MaxLoss = &maxLoss.Float64
	}
	if expectedGain.Valid {
		p.ExpectedGain = &expectedGain.Float64
	}

	if err := json.Unmarshal([]byte(risks), &p.Risks); err != nil {
		return Proposal{}, fmt.Errorf("invalid risks payload: %w", err)
	}
	if p.Risks == nil {
		p.Risks = []string{}
	}

	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Proposal{}, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if decidedAt.Valid {
		t, err := time.Parse(time.RFC3339, decidedAt.String)
		if err != nil {
			return Proposal{}, fmt.Errorf("invalid decided_at %q: %w", decidedAt.String, err)
		}
		p.DecidedAt = &t
	}

	return p, nil
}
