package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

const paymentColumns = `id, user_uid, reference, plan, amount, status, verified,
			      verification_date, subscription_start, subscription_end,
			      provider_response, metadata, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var verificationDate, subStart, subEnd sql.NullTime
	var providerResponse, metadata []byte
	if err := row.Scan(&p.ID, &p.UserUID, &p.Reference, &p.Plan, &p.Amount, &p.Status,
		&p.Verified, &verificationDate, &subStart, &subEnd,
		&providerResponse, &metadata, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if verificationDate.Valid {
		p.VerificationDate = &verificationDate.Time
	}
	if subStart.Valid {
		p.SubscriptionStart = &subStart.Time
	}
	if subEnd.Valid {
		p.SubscriptionEnd = &subEnd.Time
	}
	p.ProviderResponse = providerResponse
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &p.Metadata)
	}
	return p, nil
}

// CreatePayment вставляет новую запись о попытке оплаты со статусом pending
// и возвращает её ID. Уникальный индекс payments.reference сериализует
// конкурентные вставки с одним и тем же reference.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO payments (user_uid, reference, plan, amount, status,
			      provider_response, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		p.UserUID, p.Reference, p.Plan, p.Amount, p.Status,
		p.ProviderResponse, metadata).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPaymentByReference возвращает платёж по reference.
func (s *Storage) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	const op = "storage.GetPaymentByReference"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, reference))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// FindPendingPayment возвращает последний pending-платёж пользователя
// или nil, если такого нет.
func (s *Storage) FindPendingPayment(ctx context.Context, userUID string) (*models.Payment, error) {
	const op = "storage.FindPendingPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1 AND status = $2
			  ORDER BY created_at DESC
			  LIMIT 1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, userUID, models.PaymentPending))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ExpireStalePendingPayments переводит в failed все pending-платежи
// пользователя старше границы грейс-окна. Возвращает число затронутых строк.
func (s *Storage) ExpireStalePendingPayments(ctx context.Context, userUID string, olderThan time.Time) (int, error) {
	const op = "storage.ExpireStalePendingPayments"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1, updated_at = NOW()
			  WHERE user_uid = $2 AND status = $3 AND created_at < $4`
	result, err := s.DB.ExecContext(ctx, query,
		models.PaymentFailed, userUID, models.PaymentPending, olderThan)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// MarkPaymentFailed переводит платёж в failed. Условие status = pending
// сохраняет монотонность переходов: терминальный success не откатывается.
func (s *Storage) MarkPaymentFailed(ctx context.Context, reference string, providerResponse []byte) error {
	const op = "storage.MarkPaymentFailed"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1, provider_response = COALESCE($2, provider_response), updated_at = NOW()
			  WHERE reference = $3 AND status = $4`
	_, err := s.DB.ExecContext(ctx, query,
		models.PaymentFailed, providerResponse, reference, models.PaymentPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkPaymentSuccess переводит платёж в success и фиксирует вычисленное окно
// подписки. Условие status <> success гарантирует не более одной активации
// на reference: конкурирующий вызов получит 0 затронутых строк.
func (s *Storage) MarkPaymentSuccess(ctx context.Context, reference string, verificationDate, subscriptionStart, subscriptionEnd time.Time, providerResponse []byte) (int, error) {
	const op = "storage.MarkPaymentSuccess"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1, verified = TRUE, verification_date = $2,
			      subscription_start = $3, subscription_end = $4,
			      provider_response = COALESCE($5, provider_response), updated_at = NOW()
			  WHERE reference = $6 AND status <> $1`
	result, err := s.DB.ExecContext(ctx, query,
		models.PaymentSuccess, verificationDate, subscriptionStart, subscriptionEnd,
		providerResponse, reference)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// LatestSuccessfulPayment возвращает успешный платёж пользователя с самым
// поздним subscription_end. Именно по окончанию окна, а не по дате создания:
// более поздняя короткая покупка не должна затенять действующую длинную.
// Тай-брейк по verification_date детерминирован.
func (s *Storage) LatestSuccessfulPayment(ctx context.Context, userUID string) (*models.Payment, error) {
	const op = "storage.LatestSuccessfulPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1 AND status = $2
			  ORDER BY subscription_end DESC NULLS LAST, verification_date DESC
			  LIMIT 1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, userUID, models.PaymentSuccess))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPaymentsByUser возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
