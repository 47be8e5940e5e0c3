// Package models содержит доменные структуры сервиса: пользователь,
// платёж и снимок подписки. Структуры используются в бизнес‑логике
// и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID           string    // Уникальный идентификатор пользователя
	FullName      string    // Полное имя
	Username      string    // Имя пользователя (уникальное)
	Email         string    // Электронная почта (уникальная, хранится в нижнем регистре)
	DateOfBirth   time.Time // Дата рождения
	PhoneNumber   string    // Номер телефона
	State         string    // Регион
	City          string    // Город
	PasswordHash  string    // Хэш пароля пользователя
	Role          string    // Роль пользователя, admin или user
	TermsAccepted bool      // Приняты ли условия использования
	Subscription  SubscriptionSnapshot
	CreatedAt     time.Time
}

// SubscriptionSnapshot — денормализованный снимок подписки на пользователе.
// Это кэш для отображения: источником истины всегда остаётся история платежей,
// для авторизации снимок не используется.
type SubscriptionSnapshot struct {
	Plan                 string     `json:"plan"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	Status               string     `json:"status"`
	LastPaymentReference string     `json:"last_payment_reference,omitempty"`
}

// UserProfile — представление пользователя для ответов API, без хэша пароля.
type UserProfile struct {
	UID           string               `json:"uid"`
	FullName      string               `json:"full_name"`
	Username      string               `json:"username"`
	Email         string               `json:"email"`
	DateOfBirth   string               `json:"date_of_birth"`
	PhoneNumber   string               `json:"phone_number"`
	State         string               `json:"state"`
	City          string               `json:"city"`
	Role          string               `json:"role"`
	TermsAccepted bool                 `json:"terms_accepted"`
	Subscription  SubscriptionSnapshot `json:"subscription"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Profile возвращает представление пользователя для ответов API.
func (u User) Profile() UserProfile {
	return UserProfile{
		UID:           u.UID,
		FullName:      u.FullName,
		Username:      u.Username,
		Email:         u.Email,
		DateOfBirth:   u.DateOfBirth.Format("2006-01-02"),
		PhoneNumber:   u.PhoneNumber,
		State:         u.State,
		City:          u.City,
		Role:          u.Role,
		TermsAccepted: u.TermsAccepted,
		Subscription:  u.Subscription,
		CreatedAt:     u.CreatedAt,
	}
}

// EmptySnapshot возвращает снимок без подписки (plan = none).
func EmptySnapshot() SubscriptionSnapshot {
	return SubscriptionSnapshot{
		Plan:   "none",
		Status: SubscriptionInactive,
	}
}
