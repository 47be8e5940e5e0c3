package initialize

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	subservices "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

type MockService struct{ mock.Mock }

func (m *MockService) Initialize(ctx context.Context, userUID, planName string) (*subservices.InitializeResult, error) {
	args := m.Called(ctx, userUID, planName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subservices.InitializeResult), args.Error(1)
}

func TestInitializeHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMocks     func(s *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "success",
			body:    `{"plan": "standard"}`,
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("Initialize", mock.Anything, "uid-1", "standard").
					Return(&subservices.InitializeResult{
						AuthorizationURL: "https://checkout.paystack.com/abc",
						Reference:        "ref-1",
						Plan:             "standard",
						Amount:           450,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "https://checkout.paystack.com/abc",
		},
		{
			name:           "missing plan",
			body:           `{}`,
			userUID:        "uid-1",
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "Plan",
		},
		{
			name:    "unknown plan",
			body:    `{"plan": "enterprise"}`,
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("Initialize", mock.Anything, "uid-1", "enterprise").
					Return(nil, subservices.ErrInvalidPlan)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "unknown plan",
		},
		{
			name:    "duplicate pending returns reference",
			body:    `{"plan": "standard"}`,
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("Initialize", mock.Anything, "uid-1", "standard").
					Return(nil, &subservices.DuplicatePendingError{
						Reference: "ref-old",
						Elapsed:   90 * time.Second,
					})
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"reference":"ref-old"`,
		},
		{
			name:           "unauthorized",
			body:           `{"plan": "standard"}`,
			userUID:        "",
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMocks(mockService)

			logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/subscription/initialize", strings.NewReader(tt.body))
			if tt.userUID != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
				req = req.WithContext(ctx)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
