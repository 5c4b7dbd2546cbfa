package opportunities

import "time"

// Opportunity status values. New entries come in from the analyst; the
// owner moves them to watching or passed.
const (
	StatusNew      = "new"
	StatusWatching = "watching"
	StatusPassed   = "passed"
)

// Opportunity is a coin the analyst flagged for the owner's attention,
// lighter weight than a full trade proposal
type Opportunity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CoinID    string    `json:"coin_id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Thesis    string    `json:"thesis,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
