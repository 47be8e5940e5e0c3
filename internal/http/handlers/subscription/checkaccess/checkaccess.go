// Package checkaccess реализует HTTP-обработчик проверки доступа к странице.
package checkaccess

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

// Service описывает интерфейс проверки доступа к странице.
type Service interface {
	CheckAccess(ctx context.Context, userUID, page string) (bool, *models.SubscriptionStatus, error)
}

// Handler обрабатывает запросы проверки доступа.
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
// @Summary Проверить доступ к странице
// @Description Сообщает, доступна ли пользователю страница на его плане. Право вычисляется из истории платежей.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param page query string true "Имя страницы"
// @Success 200 {object} response.Response "Результат проверки"
// @Failure 400 {object} response.ErrorResponse "Параметр page не задан"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscription/check-access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.checkaccess"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page := r.URL.Query().Get("page")
	if page == "" {
		log.Error("missing page query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("page query parameter is required"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	allowed, status, err := h.service.CheckAccess(r.Context(), userUID, page)
	if err != nil {
		log.Error("failed to check access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"allowed": allowed,
		"status":  status.Status,
		"plan":    status.Plan,
	}))
}
