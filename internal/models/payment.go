package models

import "time"

// Статусы платежа. Переходы монотонны: pending -> success или pending -> failed,
// терминальный статус назад не переводится.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Статусы подписки, вычисляемые из истории платежей.
const (
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionInactive = "inactive"
)

// Payment — одна попытка оплаты. Reference назначается провайдером,
// глобально уникален и служит ключом идемпотентности: на один reference
// приходится не более одной активации подписки.
type Payment struct {
	ID                int
	UserUID           string
	Reference         string
	Plan              string
	Amount            int64 // в отображаемых единицах, провайдер получает минорные (x100)
	Status            string
	Verified          bool
	VerificationDate  *time.Time
	SubscriptionStart *time.Time // заполняются только при переходе в success
	SubscriptionEnd   *time.Time
	ProviderResponse  []byte // сырой ответ провайдера, как есть
	Metadata          map[string]string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SubscriptionStatus — результат вычисления статуса подписки пользователя
// из истории платежей.
type SubscriptionStatus struct {
	Status            string         `json:"status"`
	Plan              string         `json:"plan"`
	SubscriptionStart *time.Time     `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time     `json:"subscription_end,omitempty"`
	AllowedPages      []string       `json:"allowed_pages"`
	TimeRemaining     *TimeRemaining `json:"time_remaining,omitempty"`
}

// TimeRemaining — остаток оплаченного окна подписки.
type TimeRemaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// ReconciliationResult возвращается из Verify: итог платежа и, при успехе,
// активированное окно подписки.
type ReconciliationResult struct {
	Reference    string               `json:"reference"`
	Plan         string               `json:"plan"`
	Amount       int64                `json:"amount"`
	Status       string               `json:"status"`
	Subscription SubscriptionSnapshot `json:"subscription"`
}
