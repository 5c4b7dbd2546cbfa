package costs

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency describes how often a cost item recurs
type Frequency string

// Supported frequencies.
const (
	FrequencyOneTime Frequency = "one-time"
	FrequencyMonthly Frequency = "monthly"
	FrequencyAnnual  Frequency = "annual"
)

// Valid reports whether the frequency is one of the supported values
func (f Frequency) Valid() bool {
	return f == FrequencyOneTime || f == FrequencyMonthly || f == FrequencyAnnual
}

// Item is one operating cost: an exchange subscription, a tax tool, a
// hardware wallet. One-time items are sunk costs and never count toward the
// recurring monthly burn.
type Item struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Frequency   Frequency       `json:"frequency"`
	Category    string          `json:"category,omitempty"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
