package models

// Типы писем, проходящих через очередь уведомлений.
const (
	EmailWelcome         = "welcome"
	EmailPasswordChanged = "password_changed"
	EmailSubscriptionNew = "subscription_activated"
)

// EmailMessage — задание на отправку письма, публикуется в очередь
// уведомлений и потребляется сервисом отправки.
type EmailMessage struct {
	Type     string            `json:"type"`
	To       string            `json:"to"`
	Username string            `json:"username"`
	FullName string            `json:"full_name,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}
