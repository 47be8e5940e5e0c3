// Package pages реализует HTTP-обработчик списка доступных страниц.
// Маршрут закрыт middleware активной подписки.
package pages

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

// Service описывает интерфейс вычисления статуса подписки.
type Service interface {
	GetStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error)
}

// Handler обрабатывает запросы списка доступных страниц.
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
// @Summary Доступные страницы
// @Description Возвращает список страниц, доступных на текущем плане. Требует активной подписки.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Список страниц"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Подписка не активна"
// @Router /subscription/pages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.pages"
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

	status, err := h.service.GetStatus(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get subscription status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plan":  status.Plan,
		"pages": status.AllowedPages,
	}))
}
