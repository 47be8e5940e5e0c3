// Package dedoc предоставляет маршруты для основного приложения.
package dedoc

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/dedoc-backend/internal/config"
	activitylist "github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/activity/list"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/health"
	paymentdetails "github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/payment/details"
	paymentlist "github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/payment/list"
	paymentverify "github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/payment/verify"
	paymentwebhook "github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/subscription/adminrenew"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/subscription/checkaccess"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/subscription/initialize"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/subscription/pages"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/handlers/subscription/status"
	"github.com/magabrotheeeer/dedoc-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/jwt"
	activityservice "github.com/magabrotheeeer/dedoc-backend/internal/services/activity"
	authservice "github.com/magabrotheeeer/dedoc-backend/internal/services/auth"
	subservice "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, jwtMaker jwt.Maker,
	authService *authservice.AuthService, subscriptionService *subservice.SubscriptionService,
	activityService *activityservice.ActivityService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService, activityService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService, activityService).ServeHTTP)
		r.Post("/auth/forgot-password", forgotpassword.New(logger, authService, activityService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Webhook провайдера (без аутентификации, подпись в заголовке)
		r.Post("/payments/webhook", paymentwebhook.New(logger, subscriptionService, cfg.Paystack.SecretKey).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/auth/user", me.New(logger, authService).ServeHTTP)
			r.Post("/subscription/initialize", initialize.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscription/status", status.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscription/check-access", checkaccess.New(logger, subscriptionService).ServeHTTP)
			r.Get("/payments/verify", paymentverify.New(logger, subscriptionService).ServeHTTP)
			r.Get("/payments/details", paymentdetails.New(logger, subscriptionService).ServeHTTP)
			r.Get("/payments", paymentlist.New(logger, subscriptionService).ServeHTTP)

			// Контент, требующий активной подписки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireSubscription(logger, subscriptionService))
				r.Get("/subscription/pages", pages.New(logger, subscriptionService).ServeHTTP)
			})

			// Административные конечные точки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, "admin"))
				r.Post("/subscription/admin/renew/{userUID}", adminrenew.New(logger, subscriptionService, activityService).ServeHTTP)
				r.Get("/admin/activity", activitylist.New(logger, activityService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
