package interfaces

import (
	"context"
	"time"

	"github.com/Stewz00/myfabtotum-link/internal/model"
)

// UserRepository is the local account store. A user's settings blob holds
// the FABID link.
type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	GetUserByFabID(ctx context.Context, fabid string) (*model.User, error)
	UpdateSettings(ctx context.Context, userID int64, settings model.Settings) error

	UpdateLastLogin(ctx context.Context, userID int64) error
	IncrementFailedAttempts(ctx context.Context, userID int64) error

	SessionStore
}

// SessionStore tracks issued UI tokens by jti.
type SessionStore interface {
	CreateSession(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error
	RevokeSession(ctx context.Context, tokenID string) error
	IsSessionValid(ctx context.Context, tokenID string) (bool, error)
}
