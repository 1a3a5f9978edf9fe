package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/akakabu/akakabu-server/internal/common"
	"github.com/akakabu/akakabu-server/internal/interfaces"
	"github.com/akakabu/akakabu-server/internal/models"
)

// FavoriteStore implements interfaces.FavoriteStore using SurrealDB.
type FavoriteStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewFavoriteStore creates a new FavoriteStore.
func NewFavoriteStore(db *surrealdb.DB, logger *common.Logger) *FavoriteStore {
	return &FavoriteStore{db: db, logger: logger}
}

func favoriteRecordID(userID, code string) string {
	return userID + "_" + code
}

// Save upserts one favorite. Saving the same user/code pair again overwrites
// the earlier snapshot.
func (s *FavoriteStore) Save(ctx context.Context, fav *models.Favorite) error {
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID("favorite", favoriteRecordID(fav.UserID, fav.Code)),
		"record": fav,
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Favorite](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save favorite after retries: %w", lastErr)
}

func (s *FavoriteStore) List(ctx context.Context, userID string) ([]*models.Favorite, error) {
	sql := "SELECT * FROM favorite WHERE user_id = $user_id ORDER BY added_at ASC"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]models.Favorite](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Favorite
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *FavoriteStore) Delete(ctx context.Context, userID, code string) error {
	_, err := surrealdb.Delete[models.Favorite](ctx, s.db, surrealmodels.NewRecordID("favorite", favoriteRecordID(userID, code)))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// Ensure FavoriteStore implements interfaces.FavoriteStore
var _ interfaces.FavoriteStore = (*FavoriteStore)(nil)
