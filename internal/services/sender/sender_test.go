package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/dedoc-backend/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func setupHappyTransport(t *MockTransport, recipient string) *MockSMTPWriter {
	mockClient := new(MockSMTPClient)
	mockWriter := new(MockSMTPWriter)

	t.On("GetSMTPUser").Return("noreply@dedoc.app")
	t.On("Connect").Return(mockClient, nil).Once()
	mockClient.On("Mail", "noreply@dedoc.app").Return(nil).Once()
	mockClient.On("Rcpt", recipient).Return(nil).Once()
	mockClient.On("Data").Return(mockWriter, nil).Once()
	mockWriter.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	mockWriter.On("Close").Return(nil).Once()
	mockClient.On("Quit").Return(nil).Once()
	mockClient.On("Close").Return(nil).Once()
	return mockWriter
}

func TestSenderService_HandleEmailMessage(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport) *MockSMTPWriter
		expectedError bool
		errorMessage  string
		wantInBody    string
	}{
		{
			name: "welcome email",
			body: []byte(`{"type":"welcome","to":"ada@example.com","username":"ada","full_name":"Ada Obi"}`),
			setupMocks: func(tr *MockTransport) *MockSMTPWriter {
				return setupHappyTransport(tr, "ada@example.com")
			},
			expectedError: false,
			wantInBody:    "Hello Ada Obi!",
		},
		{
			name: "password changed email",
			body: []byte(`{"type":"password_changed","to":"ada@example.com","username":"ada"}`),
			setupMocks: func(tr *MockTransport) *MockSMTPWriter {
				return setupHappyTransport(tr, "ada@example.com")
			},
			expectedError: false,
			wantInBody:    "password for your DeDoc account was just changed",
		},
		{
			name: "subscription email includes window end",
			body: []byte(`{"type":"subscription_activated","to":"ada@example.com","username":"ada","data":{"plan":"premium","subscription_end":"2026-03-29"}}`),
			setupMocks: func(tr *MockTransport) *MockSMTPWriter {
				return setupHappyTransport(tr, "ada@example.com")
			},
			expectedError: false,
			wantInBody:    "active until 2026-03-29",
		},
		{
			name:          "invalid JSON",
			body:          []byte(`invalid json`),
			setupMocks:    func(_ *MockTransport) *MockSMTPWriter { return nil },
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name:          "unknown message type",
			body:          []byte(`{"type":"carrier_pigeon","to":"ada@example.com"}`),
			setupMocks:    func(_ *MockTransport) *MockSMTPWriter { return nil },
			expectedError: true,
			errorMessage:  "unknown email message type",
		},
		{
			name: "SMTP connection error",
			body: []byte(`{"type":"welcome","to":"ada@example.com","username":"ada"}`),
			setupMocks: func(tr *MockTransport) *MockSMTPWriter {
				tr.On("GetSMTPUser").Return("noreply@dedoc.app")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
				return nil
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			writer := tt.setupMocks(transport)

			service := NewSenderService(newNoopLogger(), transport)
			err := service.HandleEmailMessage(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
				written := writer.Calls[0].Arguments.Get(0).([]byte)
				assert.Contains(t, string(written), tt.wantInBody)
			}

			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_FallsBackToUsername(t *testing.T) {
	transport := new(MockTransport)
	writer := setupHappyTransport(transport, "ada@example.com")

	service := NewSenderService(newNoopLogger(), transport)
	err := service.HandleEmailMessage([]byte(`{"type":"welcome","to":"ada@example.com","username":"ada"}`))

	assert.NoError(t, err)
	written := writer.Calls[0].Arguments.Get(0).([]byte)
	assert.Contains(t, string(written), "Hello ada!")
}

func TestSenderService_SMTPErrorHandling(t *testing.T) {
	body := []byte(`{"type":"welcome","to":"ada@example.com","username":"ada"}`)

	tests := []struct {
		name         string
		setupMocks   func(*MockTransport)
		errorMessage string
	}{
		{
			name: "Mail error",
			setupMocks: func(tr *MockTransport) {
				mockClient := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("noreply@dedoc.app")
				tr.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@dedoc.app").Return(errors.New("mail error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "mail error",
		},
		{
			name: "Rcpt error",
			setupMocks: func(tr *MockTransport) {
				mockClient := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("noreply@dedoc.app")
				tr.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@dedoc.app").Return(nil).Once()
				mockClient.On("Rcpt", "ada@example.com").Return(errors.New("rcpt error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "rcpt error",
		},
		{
			name: "Data error",
			setupMocks: func(tr *MockTransport) {
				mockClient := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("noreply@dedoc.app")
				tr.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@dedoc.app").Return(nil).Once()
				mockClient.On("Rcpt", "ada@example.com").Return(nil).Once()
				mockClient.On("Data").Return(nil, errors.New("data error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "data error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)

			service := NewSenderService(newNoopLogger(), transport)
			err := service.HandleEmailMessage(body)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMessage)
			transport.AssertExpectations(t)
		})
	}
}
