package middlewarectx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dedoc-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	token, err := maker.GenerateToken("ada", "user", "uid-1")
	require.NoError(t, err)

	expiredMaker := jwt.NewJWTMaker("test-secret", -time.Minute)
	expiredToken, err := expiredMaker.GenerateToken("ada", "user", "uid-1")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectNext     bool
	}{
		{"valid token", "Bearer " + token, http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
		{"no bearer prefix", token, http.StatusUnauthorized, false},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, false},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				assert.Equal(t, "ada", r.Context().Value(User))
				assert.Equal(t, "user", r.Context().Value(Role))
				assert.Equal(t, "uid-1", r.Context().Value(UserUID))
			})

			req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			JWTMiddleware(maker, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectNext, nextCalled)
		})
	}
}

type SubscriptionServiceMock struct{ mock.Mock }

func (m *SubscriptionServiceMock) GetStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionStatus), args.Error(1)
}

func TestRequireSubscription(t *testing.T) {
	tests := []struct {
		name           string
		userUID        string
		status         string
		expectedStatus int
		expectNext     bool
	}{
		{"active subscription", "uid-1", models.SubscriptionActive, http.StatusOK, true},
		{"expired subscription", "uid-1", models.SubscriptionExpired, http.StatusForbidden, false},
		{"no subscription", "uid-1", models.SubscriptionInactive, http.StatusForbidden, false},
		{"missing uid", "", "", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subService := new(SubscriptionServiceMock)
			if tt.userUID != "" {
				subService.On("GetStatus", mock.Anything, tt.userUID).
					Return(&models.SubscriptionStatus{Status: tt.status}, nil)
			}

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })

			req := httptest.NewRequest(http.MethodGet, "/subscription/pages", nil)
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), UserUID, tt.userUID))
			}
			rr := httptest.NewRecorder()
			RequireSubscription(newNoopLogger(), subService)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectNext, nextCalled)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		expectedStatus int
	}{
		{"admin allowed", "admin", http.StatusOK},
		{"user forbidden", "user", http.StatusForbidden},
		{"missing role", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

			req := httptest.NewRequest(http.MethodPost, "/subscription/admin/renew/uid-1", nil)
			if tt.role != "" {
				req = req.WithContext(context.WithValue(req.Context(), Role, tt.role))
			}
			rr := httptest.NewRecorder()
			RequireRole(newNoopLogger(), "admin")(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
