// Package details реализует HTTP-обработчик просмотра платежа по reference.
package details

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	subservices "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

// Service описывает интерфейс получения платежа.
type Service interface {
	GetPaymentDetails(ctx context.Context, reference, requestingUserUID, role string) (*models.Payment, error)
}

// Handler обрабатывает запросы деталей платежа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// paymentView — представление платежа для ответа API, без сырого ответа
// провайдера.
type paymentView struct {
	Reference         string     `json:"reference"`
	Plan              string     `json:"plan"`
	Amount            int64      `json:"amount"`
	Status            string     `json:"status"`
	Verified          bool       `json:"verified"`
	VerificationDate  *time.Time `json:"verification_date,omitempty"`
	SubscriptionStart *time.Time `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time `json:"subscription_end,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ServeHTTP godoc
// @Summary Детали платежа
// @Description Возвращает платёж по reference. Доступен владельцу и роли admin.
// @Tags Payments
// @Produce  json
// @Security BearerAuth
// @Param reference query string true "Reference платежа"
// @Success 200 {object} response.Response "Платёж"
// @Failure 400 {object} response.ErrorResponse "Параметр reference не задан"
// @Failure 403 {object} response.ErrorResponse "Чужой платёж"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Router /payments/details [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.details"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reference := r.URL.Query().Get("reference")
	if reference == "" {
		log.Error("missing reference query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("reference query parameter is required"))
		return
	}

	userUID, _ := r.Context().Value(middlewarectx.UserUID).(string)
	role, _ := r.Context().Value(middlewarectx.Role).(string)

	payment, err := h.service.GetPaymentDetails(r.Context(), reference, userUID, role)
	if err != nil {
		switch {
		case errors.Is(err, subservices.ErrPaymentNotFound):
			log.Info("payment not found", slog.String("reference", reference))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
		case errors.Is(err, subservices.ErrForeignPayment):
			log.Error("foreign payment access attempt",
				slog.String("reference", reference), slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("access denied"))
		default:
			log.Error("failed to load payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(paymentView{
		Reference:         payment.Reference,
		Plan:              payment.Plan,
		Amount:            payment.Amount,
		Status:            payment.Status,
		Verified:          payment.Verified,
		VerificationDate:  payment.VerificationDate,
		SubscriptionStart: payment.SubscriptionStart,
		SubscriptionEnd:   payment.SubscriptionEnd,
		CreatedAt:         payment.CreatedAt,
	}))
}
