// Package forgotpassword реализует HTTP-обработчик сброса пароля.
//
// Почтовой петли с токеном нет: личность подтверждается совпадением
// идентифицирующих полей (имя, почта, телефон, дата рождения).
package forgotpassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	authservices "github.com/magabrotheeeer/dedoc-backend/internal/services/auth"
)

// Request — входные данные для сброса пароля.
type Request struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number" validate:"required"`
	DateOfBirth     string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// Service описывает интерфейс бизнес-логики сброса пароля.
type Service interface {
	ForgotPassword(ctx context.Context, username, email, phoneNumber string, dateOfBirth time.Time, newPassword string) error
}

// ActivityRecorder пишет действие пользователя в журнал.
type ActivityRecorder interface {
	Record(ctx context.Context, a models.Activity)
}

// Handler обрабатывает запросы на сброс пароля.
type Handler struct {
	log      *slog.Logger
	service  Service
	activity ActivityRecorder
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, activity ActivityRecorder) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		activity: activity,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сбросить пароль
// @Description Сбрасывает пароль по совпадению идентифицирующих полей.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентифицирующие поля и новый пароль"
// @Success 200 {object} response.Response "Пароль обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/forgot-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.forgotpassword"
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

	dateOfBirth, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		log.Error("invalid date of birth", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date of birth"))
		return
	}

	err = h.service.ForgotPassword(r.Context(), req.Username, req.Email, req.PhoneNumber, dateOfBirth, req.NewPassword)
	if err != nil {
		if errors.Is(err, authservices.ErrUserNotFound) {
			log.Info("recovery details did not match", slog.String("username", req.Username))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to reset password", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to reset password"))
		return
	}

	h.activity.Record(r.Context(), models.Activity{
		Action:   models.ActivityPasswordChange,
		Username: req.Username,
		IP:       r.RemoteAddr,
	})

	log.Info("password reset", slog.String("username", req.Username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "password updated successfully",
	}))
}
