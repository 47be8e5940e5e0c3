package checkaccess

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

type MockService struct{ mock.Mock }

func (m *MockService) CheckAccess(ctx context.Context, userUID, page string) (bool, *models.SubscriptionStatus, error) {
	args := m.Called(ctx, userUID, page)
	if args.Get(1) == nil {
		return args.Bool(0), nil, args.Error(2)
	}
	return args.Bool(0), args.Get(1).(*models.SubscriptionStatus), args.Error(2)
}

func TestCheckAccessHandler(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		userUID        string
		setupMocks     func(s *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "access allowed",
			query:   "?page=std.html",
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("CheckAccess", mock.Anything, "uid-1", "std.html").
					Return(true, &models.SubscriptionStatus{Status: models.SubscriptionActive, Plan: "standard"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"allowed":true`,
		},
		{
			name:    "page outside plan",
			query:   "?page=emergency_support.html",
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("CheckAccess", mock.Anything, "uid-1", "emergency_support.html").
					Return(false, &models.SubscriptionStatus{Status: models.SubscriptionActive, Plan: "basic"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"allowed":false`,
		},
		{
			name:           "missing page",
			query:          "",
			userUID:        "uid-1",
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "page query parameter is required",
		},
		{
			name:           "unauthorized",
			query:          "?page=std.html",
			userUID:        "",
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "unauthorized",
		},
		{
			name:    "storage error",
			query:   "?page=std.html",
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("CheckAccess", mock.Anything, "uid-1", "std.html").
					Return(false, nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "internal service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMocks(mockService)

			logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/subscription/check-access"+tt.query, nil)
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
