// Package jquants provides a client for the J-Quants API
package jquants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/akakabu/akakabu-server/internal/common"
	"github.com/akakabu/akakabu-server/internal/interfaces"
	"github.com/akakabu/akakabu-server/internal/models"
)

const (
	DefaultBaseURL   = "https://api.jquants.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the QuotesClient interface. Credentials are passed per
// call rather than held by the client: one Client serves every user.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *common.Logger
	limiter     *rate.Limiter
	credentials interfaces.CredentialWriter
	now         func() time.Time // injectable clock for the free-plan date scan
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCredentialWriter sets the store used to persist refreshed access
// tokens. May be nil, in which case refreshed tokens live only in memory.
func WithCredentialWriter(w interfaces.CredentialWriter) ClientOption {
	return func(c *Client) {
		c.credentials = w
	}
}

// NewClient creates a new J-Quants client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an upstream API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("J-Quants API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// get performs a rate-limited authenticated GET. On a 401 it refreshes the
// credential's access token and retries the original call exactly once; the
// retry's outcome is final. Any other non-2xx propagates immediately.
func (c *Client) get(ctx context.Context, cred *models.JQuantsCredential, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	err := c.doJSON(ctx, path, params, cred.AccessToken, result)
	if !IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	c.logger.Warn().Str("endpoint", path).Msg("Access token rejected, attempting refresh")

	token, refreshErr := c.RefreshAccessToken(ctx, cred)
	if refreshErr != nil || token == "" {
		if refreshErr != nil {
			c.logger.Warn().Err(refreshErr).Msg("Token refresh failed")
		}
		return err // propagate the original 401
	}

	cred.AccessToken = token
	return c.doJSON(ctx, path, params, token, result)
}

// doJSON issues one GET and decodes the JSON body into result.
func (c *Client) doJSON(ctx context.Context, path string, params url.Values, accessToken string, result interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("endpoint", path).Msg("J-Quants API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return nil // absent body is a valid empty response
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// refreshResponse tolerates both field spellings the token endpoint has
// returned across upstream versions.
type refreshResponse struct {
	IDToken      string `json:"idToken"`
	IDTokenSnake string `json:"id_token"`
}

func (r *refreshResponse) token() string {
	if r.IDToken != "" {
		return r.IDToken
	}
	return r.IDTokenSnake
}

// RefreshAccessToken exchanges the refresh token for a new access token and
// persists it via the credential writer. Persistence is best-effort: a store
// failure is logged and the fresh token is still returned so the in-flight
// request can proceed. Callers must not assume durability of a refreshed
// token beyond the current request.
func (c *Client) RefreshAccessToken(ctx context.Context, cred *models.JQuantsCredential) (string, error) {
	reqURL := fmt.Sprintf("%s/v1/token/auth_refresh?refreshtoken=%s", c.baseURL, url.QueryEscape(cred.RefreshToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/v1/token/auth_refresh",
		}
	}

	var parsed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}

	token := parsed.token()
	if token == "" {
		return "", fmt.Errorf("refresh response carried no token")
	}

	if c.credentials != nil && cred.UserID != "" {
		if err := c.credentials.UpdateAccessToken(ctx, cred.UserID, token); err != nil {
			c.logger.Warn().Err(err).Str("user_id", cred.UserID).Msg("Refreshed token not persisted")
		} else {
			c.logger.Debug().Str("user_id", cred.UserID).Msg("Refreshed token persisted")
		}
	}

	return token, nil
}

// listedInfoResponse maps the upstream listed-info field names.
type listedInfoResponse struct {
	Info []struct {
		Code             models.FlexString `json:"Code"`
		CompanyName      string            `json:"CompanyName"`
		Sector17CodeName string            `json:"Sector17CodeName"`
		MarketCodeName   string            `json:"MarketCodeName"`
	} `json:"info"`
}

// GetListedInfo retrieves the full listing snapshot
func (c *Client) GetListedInfo(ctx context.Context, cred *models.JQuantsCredential) ([]models.Listing, error) {
	var resp listedInfoResponse
	if err := c.get(ctx, cred, "/v1/listed/info", nil, &resp); err != nil {
		return nil, err
	}

	listings := make([]models.Listing, len(resp.Info))
	for i, item := range resp.Info {
		listings[i] = models.Listing{
			Code:        string(item.Code),
			CompanyName: item.CompanyName,
			Sector:      item.Sector17CodeName,
			MarketName:  item.MarketCodeName,
		}
	}

	return listings, nil
}

type dailyQuotesResponse struct {
	DailyQuotes []struct {
		Code      models.FlexString `json:"Code"`
		LocalCode models.FlexString `json:"LocalCode"`
		Date      string            `json:"Date"`
		Close     float64           `json:"Close"`
	} `json:"daily_quotes"`
}

// GetDailyQuotes retrieves closing quotes for one date (YYYYMMDD). An empty
// result is a valid response.
func (c *Client) GetDailyQuotes(ctx context.Context, cred *models.JQuantsCredential, date string) ([]models.DailyQuote, error) {
	params := url.Values{}
	params.Set("date", date)

	var resp dailyQuotesResponse
	if err := c.get(ctx, cred, "/v1/prices/daily_quotes", params, &resp); err != nil {
		return nil, err
	}

	quotes := make([]models.DailyQuote, len(resp.DailyQuotes))
	for i, q := range resp.DailyQuotes {
		quotes[i] = models.DailyQuote{
			Code:      string(q.Code),
			LocalCode: string(q.LocalCode),
			Date:      q.Date,
			Close:     q.Close,
		}
	}

	return quotes, nil
}

type dividendsResponse struct {
	Dividends []struct {
		Code      models.FlexString `json:"Code"`
		LocalCode models.FlexString `json:"LocalCode"`
		Dividend  float64           `json:"Dividend"`
	} `json:"dividends"`
	PaginationKey string `json:"pagination_key"`
}

// GetDividendYields retrieves dividend-per-share rows, following the
// pagination key until the upstream stops echoing one.
func (c *Client) GetDividendYields(ctx context.Context, cred *models.JQuantsCredential) ([]models.Dividend, error) {
	var dividends []models.Dividend
	paginationKey := ""

	for {
		params := url.Values{}
		if paginationKey != "" {
			params.Set("pagination_key", paginationKey)
		}

		var resp dividendsResponse
		if err := c.get(ctx, cred, "/v1/dividends/dividend_yield", params, &resp); err != nil {
			return nil, err
		}

		for _, d := range resp.Dividends {
			dividends = append(dividends, models.Dividend{
				Code:             string(d.Code),
				LocalCode:        string(d.LocalCode),
				DividendPerShare: d.Dividend,
			})
		}

		if resp.PaginationKey == "" {
			return dividends, nil
		}
		paginationKey = resp.PaginationKey
	}
}

type calendarResponse struct {
	Calendar []struct {
		Date    string `json:"Date"`
		Opening bool   `json:"Opening"`
	} `json:"calendar"`
}

// GetTradingCalendar retrieves the market calendar. Only calendar-eligible
// plans may call this; the upstream rejects free-tier credentials.
func (c *Client) GetTradingCalendar(ctx context.Context, cred *models.JQuantsCredential) ([]models.TradingDay, error) {
	var resp calendarResponse
	if err := c.get(ctx, cred, "/v1/markets/calendar", nil, &resp); err != nil {
		return nil, err
	}

	days := make([]models.TradingDay, len(resp.Calendar))
	for i, d := range resp.Calendar {
		days[i] = models.TradingDay{
			Date:    d.Date,
			Opening: d.Opening,
		}
	}

	return days, nil
}

// Ensure Client implements QuotesClient
var _ interfaces.QuotesClient = (*Client)(nil)
