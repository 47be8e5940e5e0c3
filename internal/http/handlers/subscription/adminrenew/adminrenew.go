// Package adminrenew реализует HTTP-обработчик административного продления
// подписки без оплаты.
package adminrenew

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	subservices "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

// Request — входные данные для административного продления.
type Request struct {
	Plan         string `json:"plan" validate:"required"`
	DurationDays int    `json:"duration_days" validate:"omitempty,min=1,max=365"`
}

// Service описывает интерфейс административного продления подписки.
type Service interface {
	AdminRenew(ctx context.Context, grantedBy, targetUID, planName string, durationDays int) (*models.ReconciliationResult, error)
}

// ActivityRecorder пишет действие пользователя в журнал.
type ActivityRecorder interface {
	Record(ctx context.Context, a models.Activity)
}

// Handler обрабатывает административное продление подписки.
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
// @Summary Продлить подписку пользователю
// @Description Активирует подписку без оплаты через синтетический платёж. Только для роли admin.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param userUID path string true "UID пользователя"
// @Param request body Request true "План и необязательная длительность в днях"
// @Success 200 {object} response.Response "Подписка активирована"
// @Failure 400 {object} response.ErrorResponse "Неизвестный план"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscription/admin/renew/{userUID} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.adminrenew"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	targetUID := chi.URLParam(r, "userUID")
	if targetUID == "" {
		log.Error("missing userUID path parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("userUID is required"))
		return
	}

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

	grantedBy, _ := r.Context().Value(middlewarectx.User).(string)

	result, err := h.service.AdminRenew(r.Context(), grantedBy, targetUID, req.Plan, req.DurationDays)
	if err != nil {
		switch {
		case errors.Is(err, subservices.ErrInvalidPlan):
			log.Info("unknown plan requested", slog.String("plan", req.Plan))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown plan"))
		case errors.Is(err, subservices.ErrUserNotFound):
			log.Info("target user not found", slog.String("uid", targetUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("failed to renew subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to renew subscription"))
		}
		return
	}

	h.activity.Record(r.Context(), models.Activity{
		Action:   models.ActivityAdminRenew,
		Username: grantedBy,
		UserUID:  targetUID,
		Details:  "plan " + req.Plan,
		IP:       r.RemoteAddr,
	})

	log.Info("subscription renewed by admin",
		slog.String("target_uid", targetUID), slog.String("plan", req.Plan))
	render.JSON(w, r, response.StatusOKWithData(result))
}
