package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

const userColumns = `uid, full_name, username, email, date_of_birth, phone_number,
			      state, city, password_hash, role, terms_accepted,
			      subscription_plan, subscription_start, subscription_end,
			      subscription_status, last_payment_reference, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var subStart, subEnd sql.NullTime
	var subPlan, subStatus, lastRef sql.NullString
	if err := row.Scan(&u.UID, &u.FullName, &u.Username, &u.Email, &u.DateOfBirth,
		&u.PhoneNumber, &u.State, &u.City, &u.PasswordHash, &u.Role, &u.TermsAccepted,
		&subPlan, &subStart, &subEnd, &subStatus, &lastRef, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Subscription = models.EmptySnapshot()
	if subPlan.Valid && subPlan.String != "" {
		u.Subscription.Plan = subPlan.String
	}
	if subStatus.Valid && subStatus.String != "" {
		u.Subscription.Status = subStatus.String
	}
	if subStart.Valid {
		u.Subscription.StartDate = &subStart.Time
	}
	if subEnd.Valid {
		u.Subscription.EndDate = &subEnd.Time
	}
	if lastRef.Valid {
		u.Subscription.LastPaymentReference = lastRef.String
	}
	return u, nil
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (full_name, username, email, date_of_birth, phone_number,
			      state, city, password_hash, role, terms_accepted, subscription_status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.FullName, user.Username, user.Email, user.DateOfBirth, user.PhoneNumber,
		user.State, user.City, user.PasswordHash, user.Role, user.TermsAccepted,
		models.SubscriptionInactive).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindUserByRecoveryDetails ищет пользователя по совокупности
// регистрационных данных. Используется восстановлением пароля без
// почтовой петли: совпасть должны все четыре поля.
func (s *Storage) FindUserByRecoveryDetails(ctx context.Context, username, email, phoneNumber string, dateOfBirth time.Time) (*models.User, error) {
	const op = "storage.FindUserByRecoveryDetails"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users
			  WHERE username = $1 AND email = $2 AND phone_number = $3
			      AND date_of_birth = $4`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username, email, phoneNumber, dateOfBirth))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdatePassword обновляет хэш пароля пользователя.
func (s *Storage) UpdatePassword(ctx context.Context, userUID, passwordHash string) error {
	const op = "storage.UpdatePassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET password_hash = $1 WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, passwordHash, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscriptionSnapshot перезаписывает денормализованный снимок
// подписки на пользователе. Снимок — кэш: источником истины остаётся
// таблица payments.
func (s *Storage) UpdateSubscriptionSnapshot(ctx context.Context, userUID string, snap models.SubscriptionSnapshot) error {
	const op = "storage.UpdateSubscriptionSnapshot"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_plan = $1, subscription_start = $2, subscription_end = $3,
			      subscription_status = $4, last_payment_reference = $5
			  WHERE uid = $6`
	_, err := s.DB.ExecContext(ctx, query,
		snap.Plan, snap.StartDate, snap.EndDate, snap.Status,
		nullIfEmpty(snap.LastPaymentReference), userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
