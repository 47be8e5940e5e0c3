package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateActivity(ctx context.Context, a models.Activity) (int, error) {
	args := m.Called(ctx, a)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListActivities(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Activity), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRecordSwallowsErrors(t *testing.T) {
	repo := new(RepoMock)
	repo.On("CreateActivity", mock.Anything, mock.Anything).
		Return(0, errors.New("connection refused")).Once()

	svc := NewActivityService(repo, newNoopLogger())
	// ошибка журнала не должна дойти до вызывающего
	svc.Record(context.Background(), models.Activity{Action: models.ActivityLogin})

	repo.AssertExpectations(t)
}

func TestListClampsLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		offset    int
		wantLimit int
		wantOff   int
	}{
		{"defaults on zero", 0, 0, 50, 0},
		{"caps oversized limit", 1000, 0, 50, 0},
		{"negative offset reset", 20, -5, 20, 0},
		{"valid passthrough", 100, 10, 100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("ListActivities", mock.Anything, tt.wantLimit, tt.wantOff).
				Return([]*models.Activity{}, nil).Once()

			svc := NewActivityService(repo, newNoopLogger())
			_, err := svc.List(context.Background(), tt.limit, tt.offset)

			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestListReturnsEntries(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListActivities", mock.Anything, 50, 0).
		Return([]*models.Activity{
			{Action: models.ActivityAdminRenew, Username: "root"},
			{Action: models.ActivityRegister, Username: "ada"},
		}, nil).Once()

	svc := NewActivityService(repo, newNoopLogger())
	list, err := svc.List(context.Background(), 0, 0)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.ActivityAdminRenew, list[0].Action)
}
