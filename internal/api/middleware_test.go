package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/peteski22/booksync/internal/auth"
)

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		header   string
		wantSame bool
	}{
		"propagates caller id": {
			header:   "cid-123",
			wantSame: true,
		},
		"assigns new id": {
			header: "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var seen string
			r := gin.New()
			r.Use(correlationID())
			r.GET("/", func(c *gin.Context) {
				seen = CorrelationID(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(correlationHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, seen, rec.Header().Get(correlationHeader))
			if tc.wantSame {
				require.Equal(t, tc.header, seen)
			} else {
				_, err := uuid.Parse(seen)
				require.NoError(t, err)
			}
		})
	}
}

func TestCorrelationID_Missing(t *testing.T) {
	t.Parallel()

	require.Empty(t, CorrelationID(context.Background()))
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(correlationID(), requestLogger(logger))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(correlationHeader, "cid-9")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Contains(t, buf.String(), `"status":418`)
	require.Contains(t, buf.String(), `"path":"/ping"`)
	require.Contains(t, buf.String(), `"correlation_id":"cid-9"`)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	authn, err := auth.NewAuthenticator(testSecret)
	require.NoError(t, err)

	tests := map[string]struct {
		header     string
		wantStatus int
		wantUser   string
	}{
		"valid token": {
			header:     bearer(t, syncer),
			wantStatus: http.StatusOK,
			wantUser:   "user-1",
		},
		"no header continues anonymously": {
			header:     "",
			wantStatus: http.StatusOK,
		},
		"wrong scheme": {
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		"invalid token": {
			header:     "Bearer garbage",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var user string
			r := gin.New()
			r.Use(authenticate(authn))
			r.GET("/", func(c *gin.Context) {
				if p, ok := auth.FromContext(c.Request.Context()); ok {
					user = p.UserID
				}
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, tc.wantUser, user)
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	authn, err := auth.NewAuthenticator(testSecret)
	require.NoError(t, err)

	h, err := NewHandler(Config{
		AllowedOrigins: []string{"https://portal.example.com"},
		Runner:         &fakeRunner{},
		Store:          &fakeStore{},
		Tokens:         authn,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/quickbooks/sync", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "https://portal.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/quickbooks/sync", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
