package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Stewz00/myfabtotum-link/internal/interfaces"
	"github.com/Stewz00/myfabtotum-link/internal/model"
	"github.com/Stewz00/myfabtotum-link/internal/repository"
	"github.com/Stewz00/myfabtotum-link/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// Claims are the JWT claims issued for a local UI session.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the numeric user id carried in the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

type AuthService struct {
	userRepo    interfaces.UserRepository
	jwtSecret   []byte
	tokenExpiry time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo interfaces.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: 24 * time.Hour,
	}
}

// TokenExpiry returns how long issued tokens stay valid.
func (s *AuthService) TokenExpiry() time.Duration {
	return s.tokenExpiry
}

// RegisterUser creates a new user account with a hashed password
func (s *AuthService) RegisterUser(ctx context.Context, email, password string) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}

	return s.userRepo.CreateUser(ctx, email, string(hashedPassword))
}

// LoginUser authenticates a user and returns a signed session token
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return "", ErrInvalidCredentials
		case errors.Is(err, repository.ErrTooManyAttempts):
			return "", ErrAccountLocked
		}
		return "", err
	}

	if user.FailedAttempts >= repository.LockThreshold {
		return "", ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if err := s.userRepo.IncrementFailedAttempts(ctx, user.ID); err != nil {
			if errors.Is(err, repository.ErrTooManyAttempts) {
				return "", ErrAccountLocked
			}
			return "", err
		}
		return "", ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.CreateSession(ctx, user.ID, claims.ID, claims.ExpiresAt.Time); err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken validates a token and checks its session has not been revoked
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if valid, err := s.userRepo.IsSessionValid(ctx, claims.ID); err != nil {
		return nil, err
	} else if !valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Authenticate validates a token and loads the session mirror of its user
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*session.Session, error) {
	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &session.Session{TokenID: claims.ID, User: user}, nil
}

// LogoutUser revokes the user's token
func (s *AuthService) LogoutUser(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return ErrInvalidToken
	}

	if valid, err := s.userRepo.IsSessionValid(ctx, claims.ID); err != nil {
		return err
	} else if !valid {
		return ErrInvalidToken
	}

	return s.userRepo.RevokeSession(ctx, claims.ID)
}
