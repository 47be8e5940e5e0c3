// Package register реализует HTTP-обработчик регистрации нового пользователя.
package register

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

// Request — входные данные для регистрации.
type Request struct {
	FullName        string `json:"full_name" validate:"required,min=2,max=100"`
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	DateOfBirth     string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	PhoneNumber     string `json:"phone_number" validate:"required,min=7,max=20"`
	State           string `json:"state" validate:"required"`
	City            string `json:"city" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	TermsAccepted   bool   `json:"terms_accepted" validate:"required"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, req authservices.RegisterRequest) (string, *models.User, error)
}

// ActivityRecorder пишет действие пользователя в журнал.
type ActivityRecorder interface {
	Record(ctx context.Context, a models.Activity)
}

// Handler обрабатывает запросы на регистрацию.
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
// @Summary Зарегистрировать пользователя
// @Description Создает нового пользователя и возвращает JWT и профиль.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или занятое имя"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"
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
	log.Info("request body decoded", slog.String("username", req.Username))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	dateOfBirth, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		log.Error("invalid date of birth", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date of birth"))
		return
	}

	token, user, err := h.service.Register(r.Context(), authservices.RegisterRequest{
		FullName:      req.FullName,
		Username:      req.Username,
		Email:         req.Email,
		DateOfBirth:   dateOfBirth,
		PhoneNumber:   req.PhoneNumber,
		State:         req.State,
		City:          req.City,
		Password:      req.Password,
		TermsAccepted: req.TermsAccepted,
	})
	if err != nil {
		switch {
		case errors.Is(err, authservices.ErrUsernameTaken),
			errors.Is(err, authservices.ErrEmailTaken):
			log.Error("registration rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("registration failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to register user"))
		}
		return
	}

	h.activity.Record(r.Context(), models.Activity{
		Action:   models.ActivityRegister,
		Username: user.Username,
		UserUID:  user.UID,
		IP:       r.RemoteAddr,
	})

	log.Info("user registered", slog.String("uid", user.UID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
		"user":  user.Profile(),
	}))
}
