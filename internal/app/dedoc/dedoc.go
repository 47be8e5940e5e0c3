// Package dedoc собирает основное приложение: хранилище, кэш, платёжный
// провайдер, очередь уведомлений и HTTP-сервер.
package dedoc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/dedoc-backend/internal/cache"
	"github.com/magabrotheeeer/dedoc-backend/internal/config"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/metrics"
	"github.com/magabrotheeeer/dedoc-backend/internal/migrations"
	"github.com/magabrotheeeer/dedoc-backend/internal/paymentprovider"
	activityservice "github.com/magabrotheeeer/dedoc-backend/internal/services/activity"
	authservice "github.com/magabrotheeeer/dedoc-backend/internal/services/auth"
	subservice "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
	"github.com/magabrotheeeer/dedoc-backend/internal/storage/repository"

	"github.com/go-chi/chi"
)

// App — собранное приложение с HTTP-сервером и подключениями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	mqConn *amqp.Connection
	mqCh   *amqp.Channel
}

// New создает приложение: подключает зависимости, прогоняет миграции
// и регистрирует маршруты. Недоступный RabbitMQ не фатален: приложение
// стартует без отправки писем.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	metrics.InitMetrics()

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.APIURL, cfg.Paystack.Timeout)

	var mqConn *amqp.Connection
	var mqCh *amqp.Channel
	var mailPublisher authservice.MailPublisher
	mqConn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Warn("rabbitmq unavailable, emails disabled", sl.Err(err))
	} else {
		mqCh, err = rabbitmq.SetupChannel(mqConn, rabbitmq.GetNotificationQueues())
		if err != nil {
			mqConn.Close()
			return nil, err
		}
		mailPublisher = rabbitmq.NewEmailPublisher(mqCh)
	}

	subscriptionService := subservice.NewSubscriptionService(
		db, db, providerClient, cacheRedis, logger, cfg.Payments.PendingTTL, cfg.Paystack.CallbackURL)
	authService := authservice.NewAuthService(db, jwtMaker, mailPublisher, logger)
	activityService := activityservice.NewActivityService(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, jwtMaker, authService, subscriptionService, activityService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		mqConn: mqConn,
		mqCh:   mqCh,
	}, nil
}

// Run запускает HTTP-сервер и дожидается сигнала остановки.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.mqCh != nil {
			_ = a.mqCh.Close()
		}
		if a.mqConn != nil {
			_ = a.mqConn.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
