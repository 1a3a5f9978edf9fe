package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/akakabu/akakabu-server/internal/app"
	"github.com/akakabu/akakabu-server/internal/common"
	"github.com/akakabu/akakabu-server/internal/interfaces"
	"github.com/akakabu/akakabu-server/internal/models"
	"github.com/akakabu/akakabu-server/internal/services/favorites"
	storage "github.com/akakabu/akakabu-server/internal/storage/surrealdb"
)

// --- in-memory stores ---

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, storage.ErrNotFound)
}

func (s *memUserStore) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.UserID] = &copied
	return nil
}

func (s *memUserStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

type memCredentialStore struct {
	mu    sync.Mutex
	creds map[string]*models.JQuantsCredential
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{creds: make(map[string]*models.JQuantsCredential)}
}

func (s *memCredentialStore) Get(_ context.Context, userID string) (*models.JQuantsCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.creds[userID]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, fmt.Errorf("credential for user %s: %w", userID, storage.ErrNotFound)
}

func (s *memCredentialStore) Upsert(_ context.Context, cred *models.JQuantsCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cred
	s.creds[cred.UserID] = &copied
	return nil
}

func (s *memCredentialStore) UpdateAccessToken(_ context.Context, userID, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.creds[userID]; ok {
		c.AccessToken = accessToken
	}
	return nil
}

func (s *memCredentialStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, userID)
	return nil
}

func (s *memCredentialStore) List(_ context.Context) ([]*models.JQuantsCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.JQuantsCredential
	for _, c := range s.creds {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

type memFavoriteStore struct {
	mu   sync.Mutex
	favs map[string]*models.Favorite // userID_code
}

func newMemFavoriteStore() *memFavoriteStore {
	return &memFavoriteStore{favs: make(map[string]*models.Favorite)}
}

func (s *memFavoriteStore) Save(_ context.Context, fav *models.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *fav
	s.favs[fav.UserID+"_"+fav.Code] = &copied
	return nil
}

func (s *memFavoriteStore) List(_ context.Context, userID string) ([]*models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Favorite
	for _, fav := range s.favs {
		if fav.UserID == userID {
			copied := *fav
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memFavoriteStore) Delete(_ context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.favs, userID+"_"+code)
	return nil
}

type memStorage struct {
	users *memUserStore
	creds *memCredentialStore
	favs  *memFavoriteStore
}

func newMemStorage() *memStorage {
	return &memStorage{
		users: newMemUserStore(),
		creds: newMemCredentialStore(),
		favs:  newMemFavoriteStore(),
	}
}

func (s *memStorage) UserStore() interfaces.UserStore             { return s.users }
func (s *memStorage) CredentialStore() interfaces.CredentialStore { return s.creds }
func (s *memStorage) FavoriteStore() interfaces.FavoriteStore     { return s.favs }
func (s *memStorage) Close() error                                { return nil }

// --- service mocks ---

type mockStockService struct {
	summaries []models.StockSummary
	summary   *models.StockSummary
	insight   string
	searchErr error
	infoErr   error

	searchCalls int
	infoCalls   int
	lastKeyword string
	lastCode    string
	lastDate    string
}

func (m *mockStockService) SearchByKeyword(_ context.Context, _ *models.JQuantsCredential, keyword string) ([]models.Listing, error) {
	return nil, nil
}

func (m *mockStockService) SearchAndSummarize(_ context.Context, _ *models.JQuantsCredential, keyword string) ([]models.StockSummary, error) {
	m.searchCalls++
	m.lastKeyword = keyword
	return m.summaries, m.searchErr
}

func (m *mockStockService) GetStockInfo(_ context.Context, _ *models.JQuantsCredential, code, date string) (*models.StockSummary, error) {
	m.infoCalls++
	m.lastCode = code
	m.lastDate = date
	if m.infoErr != nil {
		return nil, m.infoErr
	}
	return m.summary, nil
}

func (m *mockStockService) Insight(_ context.Context, _ *models.StockSummary) (string, error) {
	return m.insight, nil
}

type mockQuotesClient struct {
	refreshToken string
	refreshErr   error
	refreshCalls int
}

func (m *mockQuotesClient) GetListedInfo(_ context.Context, _ *models.JQuantsCredential) ([]models.Listing, error) {
	return nil, nil
}

func (m *mockQuotesClient) GetDailyQuotes(_ context.Context, _ *models.JQuantsCredential, _ string) ([]models.DailyQuote, error) {
	return nil, nil
}

func (m *mockQuotesClient) GetLatestDailyQuotes(_ context.Context, _ *models.JQuantsCredential) ([]models.DailyQuote, error) {
	return nil, nil
}

func (m *mockQuotesClient) GetDividendYields(_ context.Context, _ *models.JQuantsCredential) ([]models.Dividend, error) {
	return nil, nil
}

func (m *mockQuotesClient) GetTradingCalendar(_ context.Context, _ *models.JQuantsCredential) ([]models.TradingDay, error) {
	return nil, nil
}

func (m *mockQuotesClient) TargetDates(_ context.Context, _ *models.JQuantsCredential) ([]string, error) {
	return nil, nil
}

func (m *mockQuotesClient) RefreshAccessToken(_ context.Context, _ *models.JQuantsCredential) (string, error) {
	m.refreshCalls++
	return m.refreshToken, m.refreshErr
}

// --- server fixture ---

type fixture struct {
	server  *Server
	storage *memStorage
	stocks  *mockStockService
	quotes  *mockQuotesClient
	config  *common.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Auth.JWTSecret = "test-secret"

	logger := common.NewSilentLogger()
	store := newMemStorage()
	stocksMock := &mockStockService{}
	quotesMock := &mockQuotesClient{refreshToken: "access-token"}

	a := &app.App{
		Config:    config,
		Logger:    logger,
		Storage:   store,
		JQuants:   quotesMock,
		Stocks:    stocksMock,
		Favorites: favorites.NewService(store, logger),
	}

	return &fixture{
		server:  NewServer(a),
		storage: store,
		stocks:  stocksMock,
		quotes:  quotesMock,
		config:  config,
	}
}

// seedUser creates a user directly in the store and returns a session token.
func (f *fixture) seedUser(t *testing.T, userID, email, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &models.User{
		UserID:       userID,
		Email:        email,
		UserName:     "tester",
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := f.storage.users.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("save user: %v", err)
	}

	token, err := signJWT(user, f.config)
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return token
}

func (f *fixture) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) requestWithBearer(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

// seedCredential stores a linked J-Quants credential for the user.
func seedCredential(t *testing.T, f *fixture, userID string) {
	t.Helper()

	err := f.storage.creds.Upsert(context.Background(), &models.JQuantsCredential{
		UserID:       userID,
		RefreshToken: "refresh-abc",
		AccessToken:  "access-abc",
		Plan:         models.PlanProStandard,
	})
	if err != nil {
		t.Fatalf("seed credential: %v", err)
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
