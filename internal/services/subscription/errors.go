package services

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки бизнес-уровня, по которым HTTP-слой выбирает код ответа.
var (
	// ErrInvalidPlan возвращается при неизвестном идентификаторе плана.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrPaymentNotFound возвращается, если платёж с таким reference не найден.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrForeignPayment возвращается при попытке проверить чужой платёж.
	ErrForeignPayment = errors.New("payment belongs to another user")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
)

// DuplicatePendingError возвращается из Initialize, когда у пользователя уже
// есть свежий pending-платёж на тот же план. Несёт reference существующего
// платежа, чтобы клиент мог продолжить его проверку вместо создания нового.
type DuplicatePendingError struct {
	Reference string
	Elapsed   time.Duration
}

func (e *DuplicatePendingError) Error() string {
	return fmt.Sprintf("pending payment %s already exists (%s elapsed)", e.Reference, e.Elapsed)
}
