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

// CredentialStore implements interfaces.CredentialStore using SurrealDB.
// One record per user, keyed by user id. Writes are whole-record upserts or
// single-field token updates; last write wins in both cases.
type CredentialStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewCredentialStore creates a new CredentialStore.
func NewCredentialStore(db *surrealdb.DB, logger *common.Logger) *CredentialStore {
	return &CredentialStore{db: db, logger: logger}
}

func (s *CredentialStore) Get(ctx context.Context, userID string) (*models.JQuantsCredential, error) {
	record, err := surrealdb.Select[models.JQuantsCredential](ctx, s.db, surrealmodels.NewRecordID("jquants_credential", userID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("credential for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to select credential: %w", err)
	}
	if record == nil || record.UserID == "" {
		return nil, fmt.Errorf("credential for user %s: %w", userID, ErrNotFound)
	}
	return record, nil
}

func (s *CredentialStore) Upsert(ctx context.Context, cred *models.JQuantsCredential) error {
	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID("jquants_credential", cred.UserID),
		"record": cred,
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.JQuantsCredential](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to upsert credential after retries: %w", lastErr)
}

// UpdateAccessToken rewrites only the access token of an existing credential.
// A missing record is a no-op: the token refresh that triggered the write is
// already serving its request from memory.
func (s *CredentialStore) UpdateAccessToken(ctx context.Context, userID, accessToken string) error {
	sql := "UPDATE $rid SET access_token = $token"
	vars := map[string]any{
		"rid":   surrealmodels.NewRecordID("jquants_credential", userID),
		"token": accessToken,
	}

	if _, err := surrealdb.Query[[]models.JQuantsCredential](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to update access token: %w", err)
	}

	s.logger.Debug().Str("user_id", userID).Msg("Access token updated")
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context, userID string) error {
	_, err := surrealdb.Delete[models.JQuantsCredential](ctx, s.db, surrealmodels.NewRecordID("jquants_credential", userID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) List(ctx context.Context) ([]*models.JQuantsCredential, error) {
	sql := "SELECT * FROM jquants_credential"

	results, err := surrealdb.Query[[]models.JQuantsCredential](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.JQuantsCredential
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

// Ensure CredentialStore implements interfaces.CredentialStore
var _ interfaces.CredentialStore = (*CredentialStore)(nil)
