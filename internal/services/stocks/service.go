// Package stocks searches listed securities and builds per-security summaries
package stocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/akakabu/akakabu-server/internal/common"
	"github.com/akakabu/akakabu-server/internal/interfaces"
	"github.com/akakabu/akakabu-server/internal/models"
)

// Service implements StockService on top of the quotes client. The Gemini
// client is optional; without it Insight returns an empty string.
type Service struct {
	quotes interfaces.QuotesClient
	gemini interfaces.GeminiClient
	logger *common.Logger
}

// NewService creates a new stock service. gemini may be nil.
func NewService(quotes interfaces.QuotesClient, gemini interfaces.GeminiClient, logger *common.Logger) *Service {
	return &Service{
		quotes: quotes,
		gemini: gemini,
		logger: logger,
	}
}

// SearchByKeyword returns listings whose company name contains the keyword,
// case-insensitive. An empty keyword is rejected before any upstream call.
func (s *Service) SearchByKeyword(ctx context.Context, cred *models.JQuantsCredential, keyword string) ([]models.Listing, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("keyword is required")
	}

	listings, err := s.quotes.GetListedInfo(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	needle := strings.ToLower(keyword)
	matches := make([]models.Listing, 0)
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.CompanyName), needle) {
			matches = append(matches, l)
		}
	}

	s.logger.Debug().
		Str("keyword", keyword).
		Int("matches", len(matches)).
		Msg("Keyword search complete")

	return matches, nil
}

// SearchAndSummarize searches listings by keyword and joins the latest price
// and, for dividend-eligible plans, dividend data into summaries. The price
// and dividend fetches are issued concurrently. Zero matches short-circuit
// without price or dividend calls. Missing price or dividend rows leave the
// summary fields unset rather than failing the call.
func (s *Service) SearchAndSummarize(ctx context.Context, cred *models.JQuantsCredential, keyword string) ([]models.StockSummary, error) {
	matches, err := s.SearchByKeyword(ctx, cred, keyword)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []models.StockSummary{}, nil
	}

	var (
		wg        sync.WaitGroup
		quotes    []models.DailyQuote
		dividends []models.Dividend

		quoteErr, divErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		quotes, quoteErr = s.quotes.GetLatestDailyQuotes(ctx, cred)
	}()

	if cred.Plan.HasDividendAccess() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dividends, divErr = s.quotes.GetDividendYields(ctx, cred)
		}()
	}

	wg.Wait()

	if quoteErr != nil {
		return nil, quoteErr
	}
	if divErr != nil {
		return nil, divErr
	}

	summaries := make([]models.StockSummary, len(matches))
	for i, listing := range matches {
		summaries[i] = buildSummary(listing, quotes, dividends)
	}

	return summaries, nil
}

// GetStockInfo builds a summary for a single security, fetching listing,
// price, and dividend data concurrently. date may be empty, in which case
// the latest available quotes are used. Returns nil when no listing matches.
func (s *Service) GetStockInfo(ctx context.Context, cred *models.JQuantsCredential, code, date string) (*models.StockSummary, error) {
	normCode := models.NormalizeCode(code)
	if normCode == "" {
		return nil, fmt.Errorf("code is required")
	}

	var (
		wg        sync.WaitGroup
		listings  []models.Listing
		quotes    []models.DailyQuote
		dividends []models.Dividend

		listErr, quoteErr, divErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		listings, listErr = s.quotes.GetListedInfo(ctx, cred)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if date != "" {
			quotes, quoteErr = s.quotes.GetDailyQuotes(ctx, cred, date)
		} else {
			quotes, quoteErr = s.quotes.GetLatestDailyQuotes(ctx, cred)
		}
	}()

	if cred.Plan.HasDividendAccess() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dividends, divErr = s.quotes.GetDividendYields(ctx, cred)
		}()
	}

	wg.Wait()

	if listErr != nil {
		return nil, listErr
	}
	if quoteErr != nil {
		return nil, quoteErr
	}
	if divErr != nil {
		return nil, divErr
	}

	for _, listing := range listings {
		if models.NormalizeCode(listing.Code) != normCode {
			continue
		}
		summary := buildSummary(listing, quotes, dividends)
		return &summary, nil
	}

	return nil, nil
}

// Insight generates optional AI commentary for a summary. Without a
// configured Gemini client it returns an empty string.
func (s *Service) Insight(ctx context.Context, summary *models.StockSummary) (string, error) {
	if s.gemini == nil {
		return "", nil
	}
	return s.gemini.SummarizeStock(ctx, summary)
}

// buildSummary joins one listing with its price and dividend rows by
// normalized code. The summary carries the normalized code, not the raw
// listing code. Missing rows leave the pointer fields nil.
func buildSummary(listing models.Listing, quotes []models.DailyQuote, dividends []models.Dividend) models.StockSummary {
	normCode := models.NormalizeCode(listing.Code)

	summary := models.StockSummary{
		Code:        normCode,
		CompanyName: listing.CompanyName,
		Sector:      listing.Sector,
		Market:      listing.MarketName,
	}

	for i := range quotes {
		if quotes[i].Matches(normCode) {
			closePrice := quotes[i].Close
			summary.Close = &closePrice
			summary.Date = quotes[i].Date
			break
		}
	}

	for i := range dividends {
		if dividends[i].Matches(normCode) {
			dividend := dividends[i].DividendPerShare
			summary.Dividend = &dividend
			break
		}
	}

	return summary
}

// Ensure Service implements StockService
var _ interfaces.StockService = (*Service)(nil)
