package reports

import (
	"encoding/json"
	"time"
)

// Report is a free-text analysis document written by the external analyst,
// optionally carrying the market conditions it was written under
type Report struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Title          string          `json:"title"`
	ReportType     string          `json:"report_type"`
	Content        string          `json:"content"`
	MarketSnapshot json.RawMessage `json:"market_snapshot,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
