// Package initialize реализует HTTP-обработчик инициализации оплаты подписки.
package initialize

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	subservices "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

// Request — входные данные для инициализации оплаты.
type Request struct {
	Plan string `json:"plan" validate:"required"`
}

// Service описывает интерфейс бизнес-логики инициализации оплаты.
type Service interface {
	Initialize(ctx context.Context, userUID, planName string) (*subservices.InitializeResult, error)
}

// Handler обрабатывает запросы на инициализацию оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Инициализировать оплату подписки
// @Description Создает транзакцию у провайдера и возвращает ссылку на страницу оплаты.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Идентификатор плана"
// @Success 200 {object} response.Response "Данные для перехода к оплате"
// @Failure 400 {object} response.ErrorResponse "Неизвестный план или незавершённый платёж"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 502 {object} response.ErrorResponse "Провайдер недоступен"
// @Router /subscription/initialize [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.initialize"
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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Initialize(r.Context(), userUID, req.Plan)
	if err != nil {
		var dup *subservices.DuplicatePendingError
		switch {
		case errors.Is(err, subservices.ErrInvalidPlan):
			log.Info("unknown plan requested", slog.String("plan", req.Plan))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown plan"))
		case errors.As(err, &dup):
			// клиент может продолжить проверку существующего платежа
			log.Info("duplicate pending payment",
				slog.String("reference", dup.Reference),
				slog.Duration("elapsed", dup.Elapsed))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Response{
				Status: response.StatusError,
				Error:  "pending payment already exists",
				Data: map[string]any{
					"reference":       dup.Reference,
					"elapsed_seconds": int(dup.Elapsed.Seconds()),
				},
			})
		default:
			log.Error("failed to initialize payment", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("failed to initialize payment"))
		}
		return
	}

	log.Info("payment initialized", slog.String("reference", result.Reference))
	render.JSON(w, r, response.StatusOKWithData(result))
}
