package proposals

import "time"

// Proposal status values.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// PillarScores are the seven analyst sub-scores behind a confluence score
type PillarScores struct {
	Technical    int    `json:"technical"`
	Narrative    int    `json:"narrative"`
	Sentiment    int    `json:"sentiment"`
	OnChain      int    `json:"onchain"`
	Macro        int    `json:"macro"`
	Fundamentals int    `json:"fundamentals"`
	RiskReward   int    `json:"risk_reward"`
	Notes        string `json:"notes,omitempty"`
}

// Proposal is a trade recommendation written by the external analyst and
// decided by the owner. The ledger never acts on a proposal automatically;
// approval is a recorded decision, not an order.
type Proposal struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	CoinID          string       `json:"coin_id"`
	Symbol          string       `json:"symbol"`
	Action          string       `json:"action"`
	Bucket          string       `json:"bucket"`
	ConfluenceScore float64      `json:"confluence_score"`
	Signal          string       `json:"signal,omitempty"`
	Thesis          string       `json:"thesis,omitempty"`
	EntryPrice      *float64     `json:"entry_price,omitempty"`
	StopLoss        *float64     `json:"stop_loss,omitempty"`
	Target1         *float64     `json:"target1,omitempty"`
	Target2         *float64     `json:"target2,omitempty"`
	PositionSizePct *float64     `json:"position_size_pct,omitempty"`
	TimeHorizon     string       `json:"time_horizon,omitempty"`
	MaxLoss         *float64     `json:"max_loss,omitempty"`
	ExpectedGain    *float64     `json:"expected_gain,omitempty"`
	RiskReward      string       `json:"risk_reward,omitempty"`
	Pillars         PillarScores `json:"pillars"`
	Risks           []string     `json:"risks"`
	Status          string       `json:"status"`
	FounderDecision string       `json:"founder_decision,omitempty"`
	DecidedAt       *time.Time   `json:"decided_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
