// Package list реализует HTTP-обработчик истории платежей пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

// Service описывает интерфейс получения истории платежей.
type Service interface {
	ListPayments(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error)
}

// Handler обрабатывает запросы истории платежей.
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
// @Summary История платежей
// @Description Возвращает платежи текущего пользователя, новые первыми.
// @Tags Payments
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.Response "Список платежей"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	payments, err := h.service.ListPayments(r.Context(), userUID, limit, offset)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	views := make([]map[string]any, 0, len(payments))
	for _, p := range payments {
		views = append(views, map[string]any{
			"reference":        p.Reference,
			"plan":             p.Plan,
			"amount":           p.Amount,
			"status":           p.Status,
			"subscription_end": p.SubscriptionEnd,
			"created_at":       p.CreatedAt,
		})
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payments": views,
		"limit":    limit,
		"offset":   offset,
	}))
}
