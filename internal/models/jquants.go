// Package models defines the domain records for akakabu-server
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Plan is a J-Quants subscription tier. The tier gates which upstream
// endpoints a credential may call (trading calendar, dividend yields).
type Plan string

const (
	PlanFree        Plan = "free"
	PlanProLight    Plan = "pro_light"
	PlanProStandard Plan = "pro_standard"
	PlanProAdvanced Plan = "pro_advanced"
)

// HasCalendarAccess reports whether the plan may call the trading-calendar
// endpoint. Free-tier credentials must fall back to the weekday scan.
func (p Plan) HasCalendarAccess() bool {
	switch p {
	case PlanProLight, PlanProStandard, PlanProAdvanced:
		return true
	}
	return false
}

// HasDividendAccess reports whether the plan may call the dividend-yield
// endpoint. Only the top tier carries dividend data.
func (p Plan) HasDividendAccess() bool {
	return p == PlanProAdvanced
}

// Valid reports whether p is one of the known tiers.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanProLight, PlanProStandard, PlanProAdvanced:
		return true
	}
	return false
}

// JQuantsCredential is a user's linked J-Quants account. The caller owns its
// copy for the duration of one logical request; the client mutates only
// AccessToken after a refresh and persists it back best-effort.
type JQuantsCredential struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
	Plan         Plan   `json:"plan"`
}

// FlexString decodes JSON values that may be either a string or a number.
// J-Quants has historically returned security codes both ways.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = FlexString(num.String())
	return nil
}

// NormalizedCodeWidth is the fixed width of the join key used to match
// listing, price, and dividend records.
const NormalizedCodeWidth = 5

// NormalizeCode canonicalizes a raw security code into the fixed-width
// left-zero-padded join key. An empty raw code normalizes to "" and never
// matches a real security; upstream listing rows can legitimately omit a
// code, so this is a non-match rather than an error. Codes wider than the
// fixed width are kept as-is.
func NormalizeCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if len(raw) >= NormalizedCodeWidth {
		return raw
	}
	return strings.Repeat("0", NormalizedCodeWidth-len(raw)) + raw
}

// NormalizeNumericCode is a convenience for numeric raw codes.
func NormalizeNumericCode(raw int) string {
	return NormalizeCode(strconv.Itoa(raw))
}

// Listing is one row of the upstream listed-info endpoint. Immutable
// snapshot per call; never persisted locally.
type Listing struct {
	Code        string `json:"code"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector"`
	MarketName  string `json:"market_name"`
}

// DailyQuote is one security's closing quote for one trading date.
type DailyQuote struct {
	Code      string  `json:"code"`
	LocalCode string  `json:"local_code,omitempty"`
	Date      string  `json:"date"` // YYYYMMDD
	Close     float64 `json:"close"`
}

// Matches reports whether the quote belongs to the given normalized code,
// checking both upstream code fields.
func (q *DailyQuote) Matches(normCode string) bool {
	if normCode == "" {
		return false
	}
	return NormalizeCode(q.LocalCode) == normCode || NormalizeCode(q.Code) == normCode
}

// Dividend is one security's dividend-per-share figure. Present only in
// responses for the top-tier plan.
type Dividend struct {
	Code             string  `json:"code"`
	LocalCode        string  `json:"local_code,omitempty"`
	DividendPerShare float64 `json:"dividend_per_share"`
}

// Matches reports whether the dividend row belongs to the given normalized code.
func (d *Dividend) Matches(normCode string) bool {
	if normCode == "" {
		return false
	}
	return NormalizeCode(d.LocalCode) == normCode || NormalizeCode(d.Code) == normCode
}

// TradingDay is one row of the upstream market-calendar endpoint.
type TradingDay struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Opening bool   `json:"opening"`
}

// StockSummary joins listing, price, and dividend data for one security.
// Close, Dividend, and Date are nil/empty when no matching record existed —
// partial data is valid output, not an error.
type StockSummary struct {
	Code        string   `json:"code"`
	CompanyName string   `json:"company_name"`
	Sector      string   `json:"sector"`
	Market      string   `json:"market"`
	Close       *float64 `json:"close,omitempty"`
	Dividend    *float64 `json:"dividend,omitempty"`
	Date        string   `json:"date,omitempty"`
	Insight     string   `json:"insight,omitempty"`
}
