package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Stewz00/myfabtotum-link/internal/database"
	"github.com/Stewz00/myfabtotum-link/internal/interfaces"
	"github.com/Stewz00/myfabtotum-link/internal/model"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// Common errors that can be returned by the repository
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

// LockThreshold is the number of failed logins that deactivates an account.
const LockThreshold = 5

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, settings, created_at, failed_login_attempts, is_active`

// PostgresRepository stores users, their settings blob and UI sessions.
type PostgresRepository struct {
	db *database.DB
}

var _ interfaces.UserRepository = (*PostgresRepository)(nil)

func NewUserRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type userRow struct {
	user     model.User
	isActive bool
}

// queryUser runs a single-row select of userColumns and decodes the settings blob.
func (r *PostgresRepository) queryUser(ctx context.Context, where string, arg any) (*userRow, error) {
	var (
		row      userRow
		settings string
	)
	err := r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).
		Scan(&row.user.ID, &row.user.Email, &row.user.Password, &settings,
			&row.user.Created, &row.user.FailedAttempts, &row.isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if row.user.Settings, err = model.DecodeSettings(settings); err != nil {
		return nil, fmt.Errorf("user %d: %w", row.user.ID, err)
	}
	return &row, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error) {
	user := &model.User{Email: email}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, settings)
		 VALUES ($1, $2, '{}')
		 RETURNING id, created_at`,
		email, passwordHash).Scan(&user.ID, &user.Created)

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return nil, ErrDuplicateEmail
	case err != nil:
		return nil, err
	}
	return user, nil
}

// GetUserByEmail is the login lookup. Deactivated accounts yield ErrTooManyAttempts.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row, err := r.queryUser(ctx, `email = $1`, email)
	if err != nil {
		return nil, err
	}
	if !row.isActive {
		return nil, ErrTooManyAttempts
	}
	return &row.user, nil
}

// GetUserByID loads a user whatever its lock state.
func (r *PostgresRepository) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	row, err := r.queryUser(ctx, `id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return &row.user, nil
}

// GetUserByFabID returns the lowest-id user whose settings link fabid.
// Settings that are not a JSON object are never cast.
func (r *PostgresRepository) GetUserByFabID(ctx context.Context, fabid string) (*model.User, error) {
	row, err := r.queryUser(ctx,
		`CASE WHEN settings LIKE '{%'
		      THEN settings::jsonb -> 'fabid' ->> 'email'
		 END = $1
		 ORDER BY id
		 LIMIT 1`,
		fabid)
	if err != nil {
		return nil, err
	}
	return &row.user, nil
}

// UpdateSettings overwrites the whole settings blob.
func (r *PostgresRepository) UpdateSettings(ctx context.Context, userID int64, settings model.Settings) error {
	encoded, err := settings.Encode()
	if err != nil {
		return err
	}

	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET settings = $2 WHERE id = $1`, userID, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin stamps a successful login and clears the failure counter.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users
		 SET last_login = NOW(), failed_login_attempts = 0
		 WHERE id = $1`,
		userID)
	return err
}

// IncrementFailedAttempts counts a failed login and deactivates the account
// once LockThreshold is reached.
func (r *PostgresRepository) IncrementFailedAttempts(ctx context.Context, userID int64) error {
	var attempts int64
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1,
		     is_active = failed_login_attempts + 1 < $2
		 WHERE id = $1
		 RETURNING failed_login_attempts`,
		userID, LockThreshold).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if attempts >= LockThreshold {
		return ErrTooManyAttempts
	}
	return nil
}
