package models

import "time"

// Действия, фиксируемые в журнале активности.
const (
	ActivityRegister       = "register"
	ActivityLogin          = "login"
	ActivityPasswordChange = "password_change"
	ActivityAdminRenew     = "admin_renew"
)

// Activity — запись журнала действий пользователя. Запись ведётся
// best-effort: ошибка записи логируется и не прерывает исходную операцию.
type Activity struct {
	ID        int               `json:"id"`
	Action    string            `json:"action"`
	Username  string            `json:"username,omitempty"`
	UserUID   string            `json:"user_uid,omitempty"`
	Details   string            `json:"details,omitempty"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
