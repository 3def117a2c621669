package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/internal/service"
	"github.com/inkaso/collections-engine/pkg/response"
)

// eventMarkerTTL keeps webhook idempotency markers around long enough to
// absorb processor retry storms. The database unique constraint on
// processor_payment_id remains the authority; redis is only the fast path.
const eventMarkerTTL = 24 * time.Hour

type WebhookHandler struct {
	service *service.WebhookService
	redis   *redis.Client
	log     *logrus.Logger
}

func NewWebhookHandler(service *service.WebhookService, redisClient *redis.Client, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		redis:   redisClient,
		log:     log,
	}
}

// PaymentSucceeded receives the processor's asynchronous payment event.
// Delivery is at-least-once; replays are acknowledged without re-applying.
func (h *WebhookHandler) PaymentSucceeded(w http.ResponseWriter, r *http.Request) {
	var event domain.ProcessorEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		response.BadRequest(w, "INVALID_PAYLOAD", "malformed event payload")
		return
	}
	if event.ProcessorPaymentID == "" {
		response.BadRequest(w, "INVALID_PAYLOAD", "missing processor_payment_id")
		return
	}

	marker := "payevent:" + event.ProcessorPaymentID
	acquired, err := h.redis.SetNX(r.Context(), marker, 1, eventMarkerTTL).Result()
	if err != nil {
		// Redis being down must not drop payments; fall through to the
		// database-level dedup.
		h.log.WithError(err).Warn("webhook idempotency marker unavailable")
	} else if !acquired {
		h.log.WithField("processor_payment_id", event.ProcessorPaymentID).
			Info("duplicate webhook delivery skipped")
		response.Success(w, map[string]bool{"received": true})
		return
	}

	if err := h.service.HandlePaymentSucceeded(r.Context(), &event); err != nil {
		// Release the marker so the processor's retry can get through.
		h.redis.Del(r.Context(), marker)
		h.log.WithError(err).WithField("processor_payment_id", event.ProcessorPaymentID).
			Error("failed to process payment event")
		response.InternalServerError(w, "failed to process payment event")
		return
	}

	response.Success(w, map[string]bool{"received": true})
}
