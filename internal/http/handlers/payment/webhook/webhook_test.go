package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	subservices "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

const testSecret = "sk_test_secret"

type MockService struct{ mock.Mock }

func (m *MockService) Verify(ctx context.Context, reference, requestingUserUID string) (*models.ReconciliationResult, error) {
	args := m.Called(ctx, reference, requestingUserUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationResult), args.Error(1)
}

func sign(body string) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler(t *testing.T) {
	chargeSuccess := `{"event":"charge.success","data":{"reference":"ref-1","status":"success","amount":45000}}`

	tests := []struct {
		name           string
		body           string
		signature      string
		setupMocks     func(s *MockService)
		expectedStatus int
	}{
		{
			name:      "charge.success triggers verification",
			body:      chargeSuccess,
			signature: sign(chargeSuccess),
			setupMocks: func(s *MockService) {
				// пустой uid: проверка владельца для вебхука пропускается
				s.On("Verify", mock.Anything, "ref-1", "").
					Return(&models.ReconciliationResult{Reference: "ref-1", Status: models.PaymentSuccess}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid signature rejected",
			body:           chargeSuccess,
			signature:      "deadbeef",
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing signature rejected",
			body:           chargeSuccess,
			signature:      "",
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:      "unknown payment acknowledged",
			body:      chargeSuccess,
			signature: sign(chargeSuccess),
			setupMocks: func(s *MockService) {
				s.On("Verify", mock.Anything, "ref-1", "").
					Return(nil, subservices.ErrPaymentNotFound).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "other events ignored",
			body:           `{"event":"transfer.success","data":{"reference":"ref-9"}}`,
			signature:      sign(`{"event":"transfer.success","data":{"reference":"ref-9"}}`),
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed payload",
			body:           `{not json`,
			signature:      sign(`{not json`),
			setupMocks:     func(s *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMocks(mockService)

			logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
			handler := New(logger, mockService, testSecret)

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("x-paystack-signature", tt.signature)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			mockService.AssertExpectations(t)
			if tt.expectedStatus == http.StatusUnauthorized {
				mockService.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
