package snapshots

import "time"

// Snapshot is one end-of-day record of a portfolio's value, used for
// history charts and volatility statistics
type Snapshot struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	SnapshotDate       string    `json:"snapshot_date"`
	TotalValue         float64   `json:"total_value"`
	TotalCostBasis     float64   `json:"total_cost_basis"`
	TotalUnrealizedPnl float64   `json:"total_unrealized_pnl"`
	TotalRealizedPnl   float64   `json:"total_realized_pnl"`
	LongTermValue      float64   `json:"long_term_value"`
	ShortTermValue     float64   `json:"short_term_value"`
	TotalCosts         float64   `json:"total_costs"`
	CreatedAt          time.Time `json:"created_at"`
}

// HistoryStats summarizes a snapshot series
type HistoryStats struct {
	Days        int     `json:"days"`
	MeanValue   float64 `json:"mean_value"`
	StdDevValue float64 `json:"std_dev_value"`
	MinValue    float64 `json:"min_value"`
	MaxValue    float64 `json:"max_value"`
	FirstValue  float64 `json:"first_value"`
	LastValue   float64 `json:"last_value"`
	ChangePct   float64 `json:"change_pct"`
	DailyVolPct float64 `json:"daily_vol_pct"`
}
