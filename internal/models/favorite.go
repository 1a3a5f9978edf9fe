package models

import "time"

// Favorite is a saved security snapshot for one user. The snapshot carries
// the summary fields as seen at save time; it is refreshed on demand, not
// kept in sync with the market.
type Favorite struct {
	UserID      string    `json:"user_id"`
	Code        string    `json:"code"`
	CompanyName string    `json:"company_name"`
	Sector      string    `json:"sector"`
	Market      string    `json:"market"`
	Close       *float64  `json:"close,omitempty"`
	Dividend    *float64  `json:"dividend,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// FavoriteSummary aggregates a user's favorites into simple asset and
// dividend totals for the dashboard screens.
type FavoriteSummary struct {
	Count         int            `json:"count"`
	TotalClose    float64        `json:"total_close"`
	TotalDividend float64        `json:"total_dividend"`
	BySector      map[string]int `json:"by_sector"`
}
