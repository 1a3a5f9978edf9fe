package interfaces

import (
	"context"

	"github.com/akakabu/akakabu-server/internal/models"
)

// StorageManager coordinates the storage backends
type StorageManager interface {
	UserStore() UserStore
	CredentialStore() CredentialStore
	FavoriteStore() FavoriteStore

	// Lifecycle
	Close() error
}

// UserStore manages registered accounts.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// CredentialStore manages per-user J-Quants credentials. Upsert overwrites
// the whole record; UpdateAccessToken rewrites only the access token (last
// write wins, no optimistic-concurrency check).
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*models.JQuantsCredential, error)
	Upsert(ctx context.Context, cred *models.JQuantsCredential) error
	UpdateAccessToken(ctx context.Context, userID, accessToken string) error
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]*models.JQuantsCredential, error)
}

// FavoriteStore manages saved securities per user.
type FavoriteStore interface {
	Save(ctx context.Context, fav *models.Favorite) error
	List(ctx context.Context, userID string) ([]*models.Favorite, error)
	Delete(ctx context.Context, userID, code string) error
}
