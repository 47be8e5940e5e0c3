// Package services содержит бизнес-логику подписок: инициализацию оплаты,
// сверку платежей с провайдером и вычисление прав доступа из истории платежей.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/metrics"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	"github.com/magabrotheeeer/dedoc-backend/internal/paymentprovider"
	"github.com/magabrotheeeer/dedoc-backend/internal/plans"
)

// PaymentRepository определяет методы для работы с платежами в хранилище.
type PaymentRepository interface {
	// CreatePayment вставляет новую pending-запись и возвращает её ID.
	CreatePayment(ctx context.Context, p models.Payment) (int, error)
	// GetPaymentByReference возвращает платёж по reference.
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	// FindPendingPayment возвращает последний pending-платёж пользователя или nil.
	FindPendingPayment(ctx context.Context, userUID string) (*models.Payment, error)
	// ExpireStalePendingPayments переводит протухшие pending в failed.
	ExpireStalePendingPayments(ctx context.Context, userUID string, olderThan time.Time) (int, error)
	// MarkPaymentFailed переводит pending-платёж в failed.
	MarkPaymentFailed(ctx context.Context, reference string, providerResponse []byte) error
	// MarkPaymentSuccess переводит платёж в success, возвращает число затронутых строк.
	MarkPaymentSuccess(ctx context.Context, reference string, verificationDate, subscriptionStart, subscriptionEnd time.Time, providerResponse []byte) (int, error)
	// LatestSuccessfulPayment возвращает успешный платёж с самым поздним subscription_end.
	LatestSuccessfulPayment(ctx context.Context, userUID string) (*models.Payment, error)
	// ListPaymentsByUser возвращает платежи пользователя с пагинацией.
	ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error)
}

// UserRepository определяет методы для работы с пользователями.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateSubscriptionSnapshot(ctx context.Context, userUID string, snap models.SubscriptionSnapshot) error
}

// PaymentProvider — контракт внешнего платёжного провайдера.
type PaymentProvider interface {
	Initialize(ctx context.Context, req paymentprovider.InitializeRequest) (*paymentprovider.InitializeResponse, []byte, error)
	Verify(ctx context.Context, reference string) (*paymentprovider.VerifyResponse, []byte, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// InitializeResult возвращается из Initialize: ссылка на страницу оплаты
// провайдера и reference созданного платежа.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
	Plan             string `json:"plan"`
	Amount           int64  `json:"amount"`
}

// SubscriptionService сверяет платежи с провайдером и вычисляет статус
// подписки. Источник истины — история платежей; снимок на пользователе
// обновляется как кэш для отображения и никогда не используется для
// авторизации.
type SubscriptionService struct {
	payments    PaymentRepository
	users       UserRepository
	provider    PaymentProvider
	cache       Cache
	log         *slog.Logger
	pendingTTL  time.Duration
	callbackURL string

	now func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(payments PaymentRepository, users UserRepository, provider PaymentProvider, cache Cache, log *slog.Logger, pendingTTL time.Duration, callbackURL string) *SubscriptionService {
	return &SubscriptionService{
		payments:    payments,
		users:       users,
		provider:    provider,
		cache:       cache,
		log:         log,
		pendingTTL:  pendingTTL,
		callbackURL: callbackURL,
		now:         time.Now,
	}
}

// Initialize создает новую попытку оплаты плана. Перед созданием протухшие
// pending-платежи пользователя переводятся в failed; свежий pending на тот же
// план отклоняется с reference существующего платежа, pending на другой план
// помечается failed и заменяется новым.
func (s *SubscriptionService) Initialize(ctx context.Context, userUID, planName string) (*InitializeResult, error) {
	plan, ok := plans.Get(planName)
	if !ok {
		return nil, ErrInvalidPlan
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	now := s.now()
	expired, err := s.payments.ExpireStalePendingPayments(ctx, userUID, now.Add(-s.pendingTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to expire stale payments: %w", err)
	}
	if expired > 0 {
		s.log.Info("expired stale pending payments",
			slog.String("user_uid", userUID), slog.Int("count", expired))
	}

	pending, err := s.payments.FindPendingPayment(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending payments: %w", err)
	}
	if pending != nil {
		if pending.Plan == planName {
			metrics.PaymentInitializationsTotal.WithLabelValues(planName, "duplicate").Inc()
			return nil, &DuplicatePendingError{
				Reference: pending.Reference,
				Elapsed:   now.Sub(pending.CreatedAt),
			}
		}
		// смена плана: старый pending закрывается, создаётся новый
		if err := s.payments.MarkPaymentFailed(ctx, pending.Reference, nil); err != nil {
			return nil, fmt.Errorf("failed to supersede pending payment: %w", err)
		}
		s.log.Info("superseded pending payment on plan switch",
			slog.String("reference", pending.Reference),
			slog.String("old_plan", pending.Plan), slog.String("new_plan", planName))
	}

	initResp, raw, err := s.provider.Initialize(ctx, paymentprovider.InitializeRequest{
		Email:       user.Email,
		Amount:      plan.AmountMinorUnits(),
		CallbackURL: s.callbackURL,
		Metadata: map[string]string{
			"plan":     planName,
			"user_uid": userUID,
		},
	})
	if err != nil {
		metrics.PaymentInitializationsTotal.WithLabelValues(planName, "provider_error").Inc()
		return nil, fmt.Errorf("provider initialization failed: %w", err)
	}

	payment := models.Payment{
		UserUID:          userUID,
		Reference:        initResp.Data.Reference,
		Plan:             planName,
		Amount:           plan.Amount,
		Status:           models.PaymentPending,
		ProviderResponse: raw,
		Metadata:         map[string]string{"plan": planName},
	}
	if _, err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.log.Info("initialized payment",
		slog.String("reference", initResp.Data.Reference),
		slog.String("plan", planName), slog.String("user_uid", userUID))
	metrics.PaymentInitializationsTotal.WithLabelValues(planName, "ok").Inc()

	return &InitializeResult{
		AuthorizationURL: initResp.Data.AuthorizationURL,
		AccessCode:       initResp.Data.AccessCode,
		Reference:        initResp.Data.Reference,
		Plan:             planName,
		Amount:           plan.Amount,
	}, nil
}

// Verify сверяет платёж с провайдером и при успехе активирует подписку.
// Операция идемпотентна: повторный вызов для уже успешного платежа
// возвращает сохранённый результат без обращения к провайдеру. Условие
// status <> success в хранилище гарантирует единственную активацию
// на reference при конкурентных вызовах. Пустой requestingUserUID
// пропускает проверку владельца (вебхук провайдера).
func (s *SubscriptionService) Verify(ctx context.Context, reference, requestingUserUID string) (*models.ReconciliationResult, error) {
	payment, err := s.payments.GetPaymentByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if requestingUserUID != "" && payment.UserUID != requestingUserUID {
		return nil, ErrForeignPayment
	}

	if payment.Status == models.PaymentSuccess {
		metrics.PaymentVerificationsTotal.WithLabelValues("already_success").Inc()
		return resultFromPayment(payment), nil
	}

	verifyResp, raw, err := s.provider.Verify(ctx, reference)
	if err != nil {
		// платёж остаётся pending, клиент может повторить проверку
		metrics.PaymentVerificationsTotal.WithLabelValues("provider_error").Inc()
		return nil, fmt.Errorf("provider verification failed: %w", err)
	}

	if verifyResp.Data.Status != "success" {
		if err := s.payments.MarkPaymentFailed(ctx, reference, raw); err != nil {
			return nil, fmt.Errorf("failed to mark payment failed: %w", err)
		}
		s.log.Info("payment verification failed",
			slog.String("reference", reference),
			slog.String("provider_status", verifyResp.Data.Status))
		metrics.PaymentVerificationsTotal.WithLabelValues("failed").Inc()

		payment.Status = models.PaymentFailed
		return resultFromPayment(payment), nil
	}

	plan, ok := plans.Get(payment.Plan)
	if !ok {
		return nil, fmt.Errorf("payment references unknown plan %q", payment.Plan)
	}
	now := s.now()
	start, end := plans.Window(plan, now)

	rows, err := s.payments.MarkPaymentSuccess(ctx, reference, now, start, end, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment success: %w", err)
	}
	if rows == 0 {
		// конкурентная проверка успела первой, возвращаем её результат
		stored, err := s.payments.GetPaymentByReference(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("failed to reload payment: %w", err)
		}
		metrics.PaymentVerificationsTotal.WithLabelValues("already_success").Inc()
		return resultFromPayment(stored), nil
	}

	payment.Status = models.PaymentSuccess
	payment.Verified = true
	payment.VerificationDate = &now
	payment.SubscriptionStart = &start
	payment.SubscriptionEnd = &end

	s.refreshSnapshot(ctx, payment.UserUID)
	s.invalidateLatestPayment(payment.UserUID)

	s.log.Info("payment verified, subscription activated",
		slog.String("reference", reference),
		slog.String("plan", payment.Plan),
		slog.String("user_uid", payment.UserUID),
		slog.Time("subscription_end", end))
	metrics.PaymentVerificationsTotal.WithLabelValues("success").Inc()
	metrics.SubscriptionActivationsTotal.WithLabelValues(payment.Plan, "payment").Inc()

	return resultFromPayment(payment), nil
}

// GetStatus вычисляет текущий статус подписки пользователя из истории
// платежей и лениво освежает снимок на пользователе, если тот разошёлся
// с вычисленным.
func (s *SubscriptionService) GetStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error) {
	latest, err := s.latestSuccessfulPayment(ctx, userUID)
	if err != nil {
		return nil, err
	}
	status := DeriveStatus(latest, s.now())

	user, err := s.users.GetUser(ctx, userUID)
	if err == nil && user.Subscription.Status != status.Status {
		reference := ""
		if latest != nil {
			reference = latest.Reference
		}
		snap := SnapshotFromStatus(status, reference)
		if err := s.users.UpdateSubscriptionSnapshot(ctx, userUID, snap); err != nil {
			s.log.Warn("failed to refresh subscription snapshot",
				slog.String("user_uid", userUID), sl.Err(err))
		}
	}

	return status, nil
}

// CheckAccess сообщает, доступна ли пользователю страница. Право всегда
// вычисляется из истории платежей, снимок на пользователе не участвует.
func (s *SubscriptionService) CheckAccess(ctx context.Context, userUID, page string) (bool, *models.SubscriptionStatus, error) {
	latest, err := s.latestSuccessfulPayment(ctx, userUID)
	if err != nil {
		return false, nil, err
	}
	status := DeriveStatus(latest, s.now())
	if status.Status != models.SubscriptionActive {
		metrics.AccessChecksTotal.WithLabelValues("false").Inc()
		return false, status, nil
	}

	plan, ok := plans.Get(status.Plan)
	allowed := ok && plan.AllowsPage(page)
	metrics.AccessChecksTotal.WithLabelValues(fmt.Sprintf("%t", allowed)).Inc()
	return allowed, status, nil
}

// GetPaymentDetails возвращает платёж по reference с проверкой владельца.
// Роль admin видит любые платежи.
func (s *SubscriptionService) GetPaymentDetails(ctx context.Context, reference, requestingUserUID, role string) (*models.Payment, error) {
	payment, err := s.payments.GetPaymentByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if role != "admin" && payment.UserUID != requestingUserUID {
		return nil, ErrForeignPayment
	}
	return payment, nil
}

// ListPayments возвращает историю платежей пользователя.
func (s *SubscriptionService) ListPayments(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	return s.payments.ListPaymentsByUser(ctx, userUID, limit, offset)
}

// AdminRenew активирует подписку пользователю без обращения к провайдеру.
// Создаётся платёж с синтетическим reference ADMIN-<uuid>, проходящий тот же
// путь pending -> success, что и обычная оплата: инвариант единственной
// активации на reference сохраняется и для административных продлений.
func (s *SubscriptionService) AdminRenew(ctx context.Context, grantedBy, targetUID, planName string, durationDays int) (*models.ReconciliationResult, error) {
	plan, ok := plans.Get(planName)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if _, err := s.users.GetUser(ctx, targetUID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	now := s.now()
	var start, end time.Time
	if durationDays > 0 {
		start, end = plans.WindowWithDuration(now, time.Duration(durationDays)*24*time.Hour)
	} else {
		start, end = plans.Window(plan, now)
	}

	reference := "ADMIN-" + uuid.NewString()
	payment := models.Payment{
		UserUID:   targetUID,
		Reference: reference,
		Plan:      planName,
		Amount:    0,
		Status:    models.PaymentPending,
		Metadata: map[string]string{
			"source":     "admin",
			"granted_by": grantedBy,
		},
	}
	if _, err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create admin payment: %w", err)
	}
	if _, err := s.payments.MarkPaymentSuccess(ctx, reference, now, start, end, nil); err != nil {
		return nil, fmt.Errorf("failed to activate admin payment: %w", err)
	}

	payment.Status = models.PaymentSuccess
	payment.Verified = true
	payment.VerificationDate = &now
	payment.SubscriptionStart = &start
	payment.SubscriptionEnd = &end

	s.refreshSnapshot(ctx, targetUID)
	s.invalidateLatestPayment(targetUID)

	s.log.Info("admin renewed subscription",
		slog.String("target_uid", targetUID),
		slog.String("plan", planName),
		slog.String("granted_by", grantedBy),
		slog.Time("subscription_end", end))
	metrics.SubscriptionActivationsTotal.WithLabelValues(planName, "admin").Inc()

	return resultFromPayment(&payment), nil
}

// latestSuccessfulPayment читает последний успешный платёж через кеш.
// Кешировать здесь безопасно: успешный платёж неизменяем, а ключ
// инвалидируется при каждой новой активации.
func (s *SubscriptionService) latestSuccessfulPayment(ctx context.Context, userUID string) (*models.Payment, error) {
	cacheKey := fmt.Sprintf("payment:latest:%s", userUID)

	var cached *models.Payment
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	latest, err := s.payments.LatestSuccessfulPayment(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest payment: %w", err)
	}
	if latest != nil {
		if err := s.cache.Set(cacheKey, latest, time.Hour); err != nil {
			s.log.Warn("failed to cache latest payment", slog.String("key", cacheKey), sl.Err(err))
		}
	}
	return latest, nil
}

func (s *SubscriptionService) invalidateLatestPayment(userUID string) {
	cacheKey := fmt.Sprintf("payment:latest:%s", userUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), sl.Err(err))
	}
}

func (s *SubscriptionService) refreshSnapshot(ctx context.Context, userUID string) {
	latest, err := s.payments.LatestSuccessfulPayment(ctx, userUID)
	if err != nil {
		s.log.Warn("failed to load latest payment for snapshot", sl.Err(err))
		return
	}
	status := DeriveStatus(latest, s.now())
	reference := ""
	if latest != nil {
		reference = latest.Reference
	}
	if err := s.users.UpdateSubscriptionSnapshot(ctx, userUID, SnapshotFromStatus(status, reference)); err != nil {
		s.log.Warn("failed to update subscription snapshot",
			slog.String("user_uid", userUID), sl.Err(err))
	}
}

func resultFromPayment(p *models.Payment) *models.ReconciliationResult {
	result := &models.ReconciliationResult{
		Reference: p.Reference,
		Plan:      p.Plan,
		Amount:    p.Amount,
		Status:    p.Status,
	}
	if p.Status == models.PaymentSuccess {
		result.Subscription = models.SubscriptionSnapshot{
			Plan:                 p.Plan,
			StartDate:            p.SubscriptionStart,
			EndDate:              p.SubscriptionEnd,
			Status:               models.SubscriptionActive,
			LastPaymentReference: p.Reference,
		}
	} else {
		result.Subscription = models.EmptySnapshot()
	}
	return result
}
