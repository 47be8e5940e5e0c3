// Package verify реализует HTTP-обработчик сверки платежа с провайдером.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	subservices "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

// Service описывает интерфейс сверки платежа.
type Service interface {
	Verify(ctx context.Context, reference, requestingUserUID string) (*models.ReconciliationResult, error)
}

// Handler обрабатывает запросы на сверку платежа.
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

// ServeHTTP godoc
// @Summary Проверить платёж
// @Description Сверяет платёж с провайдером по reference и при успехе активирует подписку. Повторные вызовы идемпотентны.
// @Tags Payments
// @Produce  json
// @Security BearerAuth
// @Param reference query string true "Reference платежа"
// @Success 200 {object} response.Response "Итог сверки"
// @Failure 400 {object} response.ErrorResponse "Параметр reference не задан"
// @Failure 403 {object} response.ErrorResponse "Чужой платёж"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 502 {object} response.ErrorResponse "Провайдер недоступен"
// @Router /payments/verify [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"
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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Verify(r.Context(), reference, userUID)
	if err != nil {
		switch {
		case errors.Is(err, subservices.ErrPaymentNotFound):
			log.Info("payment not found", slog.String("reference", reference))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
		case errors.Is(err, subservices.ErrForeignPayment):
			log.Error("foreign payment verification attempt",
				slog.String("reference", reference), slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("access denied"))
		default:
			log.Error("failed to verify payment", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("failed to verify payment"))
		}
		return
	}

	log.Info("payment verified", slog.String("reference", reference),
		slog.String("status", result.Status))
	render.JSON(w, r, response.StatusOKWithData(result))
}
