// Package services содержит логику журнала активности пользователей.
package services

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

// ActivityRepository определяет методы для работы с журналом активности.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, a models.Activity) (int, error)
	ListActivities(ctx context.Context, limit, offset int) ([]*models.Activity, error)
}

// ActivityService пишет и читает журнал действий пользователей.
type ActivityService struct {
	repo ActivityRepository
	log  *slog.Logger
}

// NewActivityService создает новый экземпляр ActivityService.
func NewActivityService(repo ActivityRepository, log *slog.Logger) *ActivityService {
	return &ActivityService{
		repo: repo,
		log:  log,
	}
}

// Record пишет запись в журнал best-effort: ошибка логируется и не
// возвращается вызывающему, исходная операция не должна падать из-за журнала.
func (s *ActivityService) Record(ctx context.Context, a models.Activity) {
	if _, err := s.repo.CreateActivity(ctx, a); err != nil {
		s.log.Warn("failed to record user activity",
			slog.String("action", a.Action), sl.Err(err))
	}
}

// List возвращает последние записи журнала, новые первыми.
func (s *ActivityService) List(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListActivities(ctx, limit, offset)
}
