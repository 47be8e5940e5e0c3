package services

import (
	"time"

	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	"github.com/magabrotheeeer/dedoc-backend/internal/plans"
)

// DeriveStatus вычисляет статус подписки из последнего успешного платежа.
// Чистая функция: принимает платёж и момент времени, ничего не читает сама.
// nil-платёж означает, что успешных оплат не было вовсе.
func DeriveStatus(latest *models.Payment, now time.Time) *models.SubscriptionStatus {
	if latest == nil || latest.SubscriptionEnd == nil {
		return &models.SubscriptionStatus{
			Status: models.SubscriptionInactive,
			Plan:   "none",
		}
	}

	status := &models.SubscriptionStatus{
		Plan:              latest.Plan,
		SubscriptionStart: latest.SubscriptionStart,
		SubscriptionEnd:   latest.SubscriptionEnd,
	}

	if latest.SubscriptionEnd.After(now) {
		status.Status = models.SubscriptionActive
		if plan, ok := plans.Get(latest.Plan); ok {
			status.AllowedPages = plan.AllowedPages
		}
		status.TimeRemaining = remainingTime(now, *latest.SubscriptionEnd)
		return status
	}

	status.Status = models.SubscriptionExpired
	return status
}

// SnapshotFromStatus переводит вычисленный статус в денормализованный снимок
// на пользователе.
func SnapshotFromStatus(status *models.SubscriptionStatus, reference string) models.SubscriptionSnapshot {
	if status.Status == models.SubscriptionInactive {
		return models.EmptySnapshot()
	}
	return models.SubscriptionSnapshot{
		Plan:                 status.Plan,
		StartDate:            status.SubscriptionStart,
		EndDate:              status.SubscriptionEnd,
		Status:               status.Status,
		LastPaymentReference: reference,
	}
}

func remainingTime(now, end time.Time) *models.TimeRemaining {
	left := end.Sub(now)
	if left < 0 {
		left = 0
	}
	return &models.TimeRemaining{
		Days:    int(left.Hours()) / 24,
		Hours:   int(left.Hours()) % 24,
		Minutes: int(left.Minutes()) % 60,
	}
}
