// Package interfaces defines service contracts for akakabu-server
package interfaces

import (
	"context"

	"github.com/akakabu/akakabu-server/internal/models"
)

// QuotesClient provides access to the J-Quants API. Credentials are passed
// per call; on a 401 the client refreshes the access token, mutates the
// caller's credential in memory, persists the new token best-effort, and
// retries the original call exactly once.
type QuotesClient interface {
	// GetListedInfo retrieves the full listing snapshot
	GetListedInfo(ctx context.Context, cred *models.JQuantsCredential) ([]models.Listing, error)

	// GetDailyQuotes retrieves closing quotes for one date (YYYYMMDD).
	// An empty result is a valid response, not an error.
	GetDailyQuotes(ctx context.Context, cred *models.JQuantsCredential, date string) ([]models.DailyQuote, error)

	// GetLatestDailyQuotes retrieves quotes for the most recent date with
	// data, trying each resolved target date in order. Returns
	// ErrNoRecentPrice when every candidate date is exhausted.
	GetLatestDailyQuotes(ctx context.Context, cred *models.JQuantsCredential) ([]models.DailyQuote, error)

	// GetDividendYields retrieves dividend-per-share rows, following
	// pagination until the upstream stops echoing a pagination key.
	GetDividendYields(ctx context.Context, cred *models.JQuantsCredential) ([]models.Dividend, error)

	// GetTradingCalendar retrieves the market calendar (calendar-eligible plans only)
	GetTradingCalendar(ctx context.Context, cred *models.JQuantsCredential) ([]models.TradingDay, error)

	// TargetDates resolves which dates to query for "latest" data,
	// most-preferred first. Paid plans use the trading calendar; the free
	// plan scans backward for the most recent date with quote data.
	TargetDates(ctx context.Context, cred *models.JQuantsCredential) ([]string, error)

	// RefreshAccessToken exchanges the credential's refresh token for a new
	// access token and persists it best-effort. The returned token is empty
	// when the exchange failed.
	RefreshAccessToken(ctx context.Context, cred *models.JQuantsCredential) (string, error)
}

// CredentialWriter persists a refreshed access token. Implemented by the
// credential store; a write failure must not fail the in-flight request.
type CredentialWriter interface {
	UpdateAccessToken(ctx context.Context, userID, accessToken string) error
}

// GeminiClient provides access to the Gemini API for optional stock insights.
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// SummarizeStock generates a short commentary for a stock summary
	SummarizeStock(ctx context.Context, summary *models.StockSummary) (string, error)
}
