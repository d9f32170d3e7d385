package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStrictRateLimiter(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	limiter := StrictRateLimiter()(handler)

	tests := []struct {
		name           string
		remoteAddr     string
		requests       int
		wantStatusCode int
	}{
		{
			name:           "within limit",
			remoteAddr:     "127.0.0.1:12345",
			requests:       5,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "exceed limit",
			remoteAddr:     "127.0.0.2:12345",
			requests:       15,
			wantStatusCode: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lastStatus int
			for i := 0; i < tt.requests; i++ {
				req := httptest.NewRequest("POST", "/myfabtotum/connect", nil)
				req.RemoteAddr = tt.remoteAddr
				w := httptest.NewRecorder()

				limiter.ServeHTTP(w, req)
				lastStatus = w.Code
			}

			if lastStatus != tt.wantStatusCode {
				t.Errorf("got status %v, want %v", lastStatus, tt.wantStatusCode)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"http://fabtotum.local"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		origin     string
		wantHeader string
	}{
		{name: "allowed origin", origin: "http://fabtotum.local", wantHeader: "http://fabtotum.local"},
		{name: "foreign origin", origin: "http://evil.example", wantHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/myfabtotum", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("got Access-Control-Allow-Origin %q, want %q", got, tt.wantHeader)
			}
		})
	}
}
