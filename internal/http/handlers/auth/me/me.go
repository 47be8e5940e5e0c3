// Package me реализует HTTP-обработчик получения профиля текущего пользователя.
package me

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
	authservices "github.com/magabrotheeeer/dedoc-backend/internal/services/auth"
)

// Service описывает интерфейс получения профиля пользователя.
type Service interface {
	CurrentUser(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает запросы профиля текущего пользователя.
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
// @Summary Профиль текущего пользователя
// @Description Возвращает профиль пользователя из JWT.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /auth/user [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"
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

	user, err := h.service.CurrentUser(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, authservices.ErrUserNotFound) {
			log.Error("user not found", slog.String("uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to load user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(user.Profile()))
}
