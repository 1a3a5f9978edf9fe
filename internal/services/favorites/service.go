// Package favorites manages saved securities and their aggregate summaries
package favorites

import (
	"context"
	"fmt"
	"time"

	"github.com/akakabu/akakabu-server/internal/common"
	"github.com/akakabu/akakabu-server/internal/interfaces"
	"github.com/akakabu/akakabu-server/internal/models"
)

// Service implements FavoriteService on top of the favorite store.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new favorite service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Add saves a favorite for a user. The code is normalized before storage so
// that add and remove agree on the key regardless of how the caller wrote it.
func (s *Service) Add(ctx context.Context, fav *models.Favorite) error {
	if fav.UserID == "" {
		return fmt.Errorf("user id is required")
	}

	code := models.NormalizeCode(fav.Code)
	if code == "" {
		return fmt.Errorf("code is required")
	}
	fav.Code = code

	if fav.AddedAt.IsZero() {
		fav.AddedAt = s.now()
	}

	if err := s.storage.FavoriteStore().Save(ctx, fav); err != nil {
		return fmt.Errorf("failed to save favorite: %w", err)
	}

	s.logger.Info().
		Str("user_id", fav.UserID).
		Str("code", fav.Code).
		Msg("Favorite added")

	return nil
}

// List returns a user's favorites.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Favorite, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.storage.FavoriteStore().List(ctx, userID)
}

// Remove deletes one favorite by code.
func (s *Service) Remove(ctx context.Context, userID, code string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	normCode := models.NormalizeCode(code)
	if normCode == "" {
		return fmt.Errorf("code is required")
	}

	if err := s.storage.FavoriteStore().Delete(ctx, userID, normCode); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("code", normCode).
		Msg("Favorite removed")

	return nil
}

// Summary aggregates a user's favorites into asset and dividend totals.
// Favorites without a close or dividend snapshot count toward Count and the
// sector breakdown but contribute nothing to the totals.
func (s *Service) Summary(ctx context.Context, userID string) (*models.FavoriteSummary, error) {
	favs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.FavoriteSummary{
		Count:    len(favs),
		BySector: make(map[string]int),
	}

	for _, fav := range favs {
		if fav.Close != nil {
			summary.TotalClose += *fav.Close
		}
		if fav.Dividend != nil {
			summary.TotalDividend += *fav.Dividend
		}
		if fav.Sector != "" {
			summary.BySector[fav.Sector]++
		}
	}

	return summary, nil
}

// Ensure Service implements FavoriteService
var _ interfaces.FavoriteService = (*Service)(nil)
