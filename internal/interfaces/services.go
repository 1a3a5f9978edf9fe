package interfaces

import (
	"context"

	"github.com/akakabu/akakabu-server/internal/models"
)

// StockService searches listed securities and builds per-security summaries.
type StockService interface {
	// SearchByKeyword returns listings whose company name contains the
	// keyword (case-insensitive).
	SearchByKeyword(ctx context.Context, cred *models.JQuantsCredential, keyword string) ([]models.Listing, error)

	// SearchAndSummarize searches listings by keyword and joins price and
	// (plan-gated) dividend data into summaries. Partial joins are valid
	// output; zero matches yield an empty slice without further upstream calls.
	SearchAndSummarize(ctx context.Context, cred *models.JQuantsCredential, keyword string) ([]models.StockSummary, error)

	// GetStockInfo builds a summary for a single security. date may be
	// empty, in which case the latest available quotes are used. Returns
	// nil when no listing matches the code.
	GetStockInfo(ctx context.Context, cred *models.JQuantsCredential, code, date string) (*models.StockSummary, error)

	// Insight generates optional AI commentary for a summary. Returns an
	// empty string when no AI client is configured.
	Insight(ctx context.Context, summary *models.StockSummary) (string, error)
}

// FavoriteService manages saved securities and their aggregate summaries.
type FavoriteService interface {
	Add(ctx context.Context, fav *models.Favorite) error
	List(ctx context.Context, userID string) ([]*models.Favorite, error)
	Remove(ctx context.Context, userID, code string) error

	// Summary aggregates the user's favorites into asset/dividend totals.
	Summary(ctx context.Context, userID string) (*models.FavoriteSummary, error)

	// RenderDividendChart renders a PNG bar chart of dividend per favorite.
	RenderDividendChart(ctx context.Context, userID string) ([]byte, error)
}
