// Package webhook реализует HTTP-обработчик вебхуков платёжного провайдера.
//
// Подпись проверяется по HMAC-SHA512 от сырого тела запроса с секретным
// ключом, заголовок x-paystack-signature. Событие charge.success запускает
// тот же путь сверки, что и клиентский verify: активация остаётся
// идемпотентной по reference независимо от того, кто пришёл первым.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/dedoc-backend/internal/lib/sl"
	"github.com/magabrotheeeer/dedoc-backend/internal/models"
	subservices "github.com/magabrotheeeer/dedoc-backend/internal/services/subscription"
)

// Service описывает интерфейс сверки платежа.
type Service interface {
	Verify(ctx context.Context, reference, requestingUserUID string) (*models.ReconciliationResult, error)
}

// Payload — тело вебхука провайдера.
type Payload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string            `json:"reference"`
		Status    string            `json:"status"`
		Amount    int64             `json:"amount"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

// Handler обрабатывает вебхуки провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый Handler. secret — секретный ключ провайдера,
// которым подписываются вебхуки.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("x-paystack-signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch payload.Event {
	case "charge.success":
		// сверка идёт через провайдера, содержимому вебхука не доверяем
		if _, err := h.service.Verify(r.Context(), payload.Data.Reference, ""); err != nil {
			if errors.Is(err, subservices.ErrPaymentNotFound) {
				log.Info("webhook for unknown payment",
					slog.String("reference", payload.Data.Reference))
				w.WriteHeader(http.StatusOK)
				return
			}
			log.Error("failed to process webhook event", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		log.Info("ignored webhook event", slog.String("event", payload.Event))
	}

	log.Info("webhook processed successfully",
		slog.String("event", payload.Event),
		slog.String("reference", payload.Data.Reference))
	w.WriteHeader(http.StatusOK)
}
