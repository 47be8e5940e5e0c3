package verify

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
	subservices "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

type MockService struct{ mock.Mock }

func (m *MockService) Verify(ctx context.Context, reference, requestingUserUID string) (*models.ReconciliationResult, error) {
	args := m.Called(ctx, reference, requestingUserUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationResult), args.Error(1)
}

func TestVerifyHandler(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		userUID        string
		setupMocks     func(s *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "success",
			query:   "?reference=ref-1",
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("Verify", mock.Anything, "ref-1", "uid-1").
					Return(&models.ReconciliationResult{
						Reference: "ref-1",
						Plan:      "standard",
						Status:    models.PaymentSuccess,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"success"`,
		},
		{
			name:           "missing reference",
			query:          "",
			userUID:        "uid-1",
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "reference query parameter is required",
		},
		{
			name:           "unauthorized",
			query:          "?reference=ref-1",
			userUID:        "",
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "unauthorized",
		},
		{
			name:    "payment not found",
			query:   "?reference=missing",
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("Verify", mock.Anything, "missing", "uid-1").
					Return(nil, subservices.ErrPaymentNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "payment not found",
		},
		{
			name:    "foreign payment",
			query:   "?reference=ref-2",
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("Verify", mock.Anything, "ref-2", "uid-1").
					Return(nil, subservices.ErrForeignPayment)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   "access denied",
		},
		{
			name:    "provider unavailable",
			query:   "?reference=ref-3",
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("Verify", mock.Anything, "ref-3", "uid-1").
					Return(nil, errors.New("provider verification failed: timeout"))
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   "failed to verify payment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMocks(mockService)

			logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/payments/verify"+tt.query, nil)
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
