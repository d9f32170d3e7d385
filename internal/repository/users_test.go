package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/Stewz00/myfabtotum-link/internal/database"
	"github.com/Stewz00/myfabtotum-link/internal/model"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := godotenv.Load("../../.env.test"); err != nil {
		fmt.Printf("Warning: .env.test file not found: %v\n", err)
	}
}

func setupTestDB(t *testing.T) *database.DB {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL environment variable is not set")
	}

	ctx := context.Background()
	if err := database.Migrate(ctx, dbURL); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db, err := database.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean up before each test
	_, err = db.Pool.Exec(ctx, "TRUNCATE users, sessions CASCADE")
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return db
}

func TestPostgresRepository_CreateUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
		errIs    error
	}{
		{
			name:     "valid user creation",
			email:    "test@example.com",
			password: "hashedpassword",
			wantErr:  false,
		},
		{
			name:     "duplicate email",
			email:    "test@example.com",
			password: "hashedpassword",
			wantErr:  true,
			errIs:    ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := repo.CreateUser(context.Background(), tt.email, tt.password)

			if tt.wantErr {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, user)
			assert.Equal(t, tt.email, user.Email)
		})
	}
}

func TestPostgresRepository_GetUserByEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	email := "test@example.com"
	_, err := repo.CreateUser(ctx, email, "hashedpassword")
	require.NoError(t, err)

	user, err := repo.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, email, user.Email)
	assert.False(t, user.IsLinked())

	_, err = repo.GetUserByEmail(ctx, "nonexistent@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresRepository_SettingsLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "local@example.com", "hashedpassword")
	require.NoError(t, err)

	t.Run("link", func(t *testing.T) {
		settings := model.Settings{
			Fabid: &model.FabidLink{Email: "a@x.com", Password: "pw"},
			Extra: map[string]json.RawMessage{"theme": json.RawMessage(`"dark"`)},
		}
		require.NoError(t, repo.UpdateSettings(ctx, created.ID, settings))

		user, err := repo.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, &model.FabidLink{Email: "a@x.com", Password: "pw"}, user.Settings.Fabid)
		assert.JSONEq(t, `"dark"`, string(user.Settings.Extra["theme"]))

		byFabid, err := repo.GetUserByFabID(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byFabid.ID)
	})

	t.Run("unlink", func(t *testing.T) {
		user, err := repo.GetUserByID(ctx, created.ID)
		require.NoError(t, err)

		user.Settings.Fabid = nil
		require.NoError(t, repo.UpdateSettings(ctx, created.ID, user.Settings))

		_, err = repo.GetUserByFabID(ctx, "a@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound)

		var raw string
		require.NoError(t, db.Pool.QueryRow(ctx, `SELECT settings FROM users WHERE id = $1`, created.ID).Scan(&raw))
		assert.JSONEq(t, `{"theme":"dark"}`, raw)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.GetUserByID(ctx, created.ID+1000)
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.ErrorIs(t, repo.UpdateSettings(ctx, created.ID+1000, model.Settings{}), ErrUserNotFound)
	})
}

func TestPostgresRepository_GetUserByFabIDIgnoresMalformedSettings(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO users (email, password_hash, settings) VALUES ('broken@example.com', 'x', '')`)
	require.NoError(t, err)

	_, err = repo.GetUserByFabID(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresRepository_IncrementFailedAttempts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "test@example.com", "hashedpassword")
	require.NoError(t, err)

	var lastError error
	for i := 0; i < LockThreshold-1; i++ {
		lastError = repo.IncrementFailedAttempts(ctx, user.ID)
	}
	assert.NoError(t, lastError)

	assert.ErrorIs(t, repo.IncrementFailedAttempts(ctx, user.ID), ErrTooManyAttempts)

	_, err = repo.GetUserByEmail(ctx, user.Email)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestPostgresRepository_UpdateLastLogin(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "test@example.com", "hashedpassword")
	require.NoError(t, err)
	require.NoError(t, repo.IncrementFailedAttempts(ctx, user.ID))

	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID))

	updatedUser, err := repo.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updatedUser.FailedAttempts)
}
