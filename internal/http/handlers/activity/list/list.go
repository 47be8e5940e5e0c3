// Package list реализует HTTP-обработчик просмотра журнала активности.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

// Service описывает интерфейс чтения журнала активности.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Activity, error)
}

// Handler обрабатывает запросы журнала активности.
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
// @Summary Журнал активности
// @Description Возвращает последние записи журнала действий пользователей. Только для роли admin.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.Response "Записи журнала"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/activity [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 50
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		offset = 0
	}

	activities, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list activities", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"activities": activities,
	}))
}
