// Package login реализует HTTP-обработчик входа пользователя.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	authservices "github.com/magabrotheeeer/dedoc-backend/internal/services/auth"
)

// Request — входные данные для входа.
type Request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, username, password string) (string, *models.User, error)
}

// ActivityRecorder пишет действие пользователя в журнал.
type ActivityRecorder interface {
	Record(ctx context.Context, a models.Activity)
}

// Handler обрабатывает запросы на вход.
type Handler struct {
	log      *slog.Logger
	service  Service
	activity ActivityRecorder
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service, activity ActivityRecorder) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		activity: activity,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Войти в систему
// @Description Проверяет пару логин/пароль и возвращает JWT и профиль.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Логин и пароль"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, authservices.ErrInvalidCredentials) {
			log.Info("login rejected", slog.String("username", req.Username))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid credentials"))
			return
		}
		log.Error("login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to login"))
		return
	}

	h.activity.Record(r.Context(), models.Activity{
		Action:   models.ActivityLogin,
		Username: user.Username,
		UserUID:  user.UID,
		IP:       r.RemoteAddr,
	})

	log.Info("user logged in", slog.String("username", user.Username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
		"user":  user.Profile(),
	}))
}
