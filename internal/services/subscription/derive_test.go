package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

func TestDeriveStatus_NoPayments(t *testing.T) {
	status := DeriveStatus(nil, time.Now())

	assert.Equal(t, models.SubscriptionInactive, status.Status)
	assert.Equal(t, "none", status.Plan)
	assert.Nil(t, status.TimeRemaining)
	assert.Empty(t, status.AllowedPages)
}

func TestDeriveStatus_Active(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)
	end := now.Add(2*24*time.Hour + 3*time.Hour + 30*time.Minute)
	payment := &models.Payment{
		Plan:              "premium",
		Status:            models.PaymentSuccess,
		SubscriptionStart: &start,
		SubscriptionEnd:   &end,
	}

	status := DeriveStatus(payment, now)

	assert.Equal(t, models.SubscriptionActive, status.Status)
	assert.Equal(t, "premium", status.Plan)
	assert.NotEmpty(t, status.AllowedPages)
	require.NotNil(t, status.TimeRemaining)
	assert.Equal(t, 2, status.TimeRemaining.Days)
	assert.Equal(t, 3, status.TimeRemaining.Hours)
	assert.Equal(t, 30, status.TimeRemaining.Minutes)
}

func TestDeriveStatus_Expired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	start := now.Add(-2 * time.Hour)
	end := now.Add(-time.Hour)
	payment := &models.Payment{
		Plan:              "basic",
		Status:            models.PaymentSuccess,
		SubscriptionStart: &start,
		SubscriptionEnd:   &end,
	}

	status := DeriveStatus(payment, now)

	assert.Equal(t, models.SubscriptionExpired, status.Status)
	assert.Equal(t, "basic", status.Plan)
	assert.Empty(t, status.AllowedPages)
	assert.Nil(t, status.TimeRemaining)
}

func TestDeriveStatus_ExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	end := now
	payment := &models.Payment{
		Plan:            "basic",
		Status:          models.PaymentSuccess,
		SubscriptionEnd: &end,
	}

	// окно [start, end): в момент end подписка уже не активна
	status := DeriveStatus(payment, now)
	assert.Equal(t, models.SubscriptionExpired, status.Status)
}

func TestSnapshotFromStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)
	status := &models.SubscriptionStatus{
		Status:            models.SubscriptionActive,
		Plan:              "basic",
		SubscriptionStart: &now,
		SubscriptionEnd:   &end,
	}

	snap := SnapshotFromStatus(status, "ref-1")
	assert.Equal(t, models.SubscriptionActive, snap.Status)
	assert.Equal(t, "basic", snap.Plan)
	assert.Equal(t, "ref-1", snap.LastPaymentReference)

	empty := SnapshotFromStatus(&models.SubscriptionStatus{
		Status: models.SubscriptionInactive,
		Plan:   "none",
	}, "")
	assert.Equal(t, models.EmptySnapshot(), empty)
}
