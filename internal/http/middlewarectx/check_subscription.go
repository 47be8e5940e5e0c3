package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/dedoc-backend/internal/http/response"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

// SubscriptionServiceInterface определяет интерфейс для вычисления статуса
// подписки. Статус всегда вычисляется из истории платежей: снимок на
// пользователе может быть устаревшим и для авторизации не используется.
type SubscriptionServiceInterface interface {
	GetStatus(ctx context.Context, userUID string) (*models.SubscriptionStatus, error)
}

// RequireSubscription создает middleware, пропускающий дальше только
// пользователей с активной подпиской.
func RequireSubscription(log *slog.Logger, subService SubscriptionServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			status, err := subService.GetStatus(r.Context(), userUID)
			if err != nil {
				log.Error("failed to get subscription status", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if status.Status != models.SubscriptionActive {
				log.Info("subscription not active, access denied",
					slog.String("user_uid", userUID), slog.String("status", status.Status))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("active subscription required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole создает middleware, пропускающий дальше только пользователей
// с указанной ролью.
func RequireRole(log *slog.Logger, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, ok := r.Context().Value(Role).(string)
			if !ok || current != role {
				log.Error("access denied: insufficient role",
					slog.String("required", role), slog.String("actual", current))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
