package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Stewz00/myfabtotum-link/internal/middleware"
	"github.com/Stewz00/myfabtotum-link/internal/service"
	"github.com/Stewz00/myfabtotum-link/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	mockRepo := test.NewMockUserRepository()
	authService := service.NewAuthService(mockRepo, "test-secret")
	handler := NewAuthHandler(authService)

	tests := []struct {
		name           string
		requestBody    map[string]string
		wantStatusCode int
		wantErr        bool
	}{
		{
			name: "valid registration",
			requestBody: map[string]string{
				"email":    "test@example.com",
				"password": "password123",
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "duplicate email",
			requestBody: map[string]string{
				"email":    "test@example.com",
				"password": "password123",
			},
			wantStatusCode: http.StatusConflict,
			wantErr:        true,
		},
		{
			name: "invalid email",
			requestBody: map[string]string{
				"email":    "invalid-email",
				"password": "password123",
			},
			wantStatusCode: http.StatusBadRequest,
			wantErr:        true,
		},
		{
			name: "short password",
			requestBody: map[string]string{
				"email":    "short@example.com",
				"password": "pw",
			},
			wantStatusCode: http.StatusBadRequest,
			wantErr:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			handler.Register(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)

			var response map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

			if tt.wantErr {
				assert.NotEmpty(t, response["error"])
			} else {
				assert.Equal(t, tt.requestBody["email"], response["email"])
			}
		})
	}
}

func TestAuthHandler_LoginLogout(t *testing.T) {
	mockRepo := test.NewMockUserRepository()
	authService := service.NewAuthService(mockRepo, "test-secret")
	handler := NewAuthHandler(authService)

	_, err := authService.RegisterUser(context.Background(), "test@example.com", "password123")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		body, _ := json.Marshal(LoginRequest{Email: "test@example.com", Password: "nope"})
		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	var cookie *http.Cookie
	t.Run("login sets cookie", func(t *testing.T) {
		body, _ := json.Marshal(LoginRequest{Email: "test@example.com", Password: "password123"})
		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body)))

		require.Equal(t, http.StatusOK, w.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.NotEmpty(t, resp.Token)

		for _, c := range w.Result().Cookies() {
			if c.Name == middleware.SessionCookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.Equal(t, resp.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("logout with cookie", func(t *testing.T) {
		require.NotNil(t, cookie)
		req := httptest.NewRequest("POST", "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("logout again", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+cookie.Value)
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout without token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Logout(w, httptest.NewRequest("POST", "/auth/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
