package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/internal/processor"
)

// WebhookService applies asynchronous payment-succeeded events from the
// payment processor. Events are delivered at least once and may arrive
// without metadata; missing metadata is fetched back from the processor
// before the payment is applied.
type WebhookService struct {
	debts     *DebtService
	plans     *PlanService
	processor processor.Client
	log       *logrus.Logger
}

func NewWebhookService(debts *DebtService, plans *PlanService, client processor.Client, log *logrus.Logger) *WebhookService {
	return &WebhookService{
		debts:     debts,
		plans:     plans,
		processor: client,
		log:       log,
	}
}

// HandlePaymentSucceeded credits the referenced installment, or the debt
// directly when the event is not tied to an installment. Duplicate events
// are swallowed inside the record operations.
func (s *WebhookService) HandlePaymentSucceeded(ctx context.Context, event *domain.ProcessorEvent) error {
	if event.ProcessorPaymentID == "" {
		return fmt.Errorf("payment event without processor payment id")
	}

	if !event.Complete() {
		s.log.WithField("processor_payment_id", event.ProcessorPaymentID).
			Info("event metadata missing, fetching from processor")
		full, err := s.processor.FetchPaymentMetadata(ctx, event.ProcessorPaymentID)
		if err != nil {
			return fmt.Errorf("fetching event metadata: %w", err)
		}
		event = full
	}

	if !event.Complete() {
		return fmt.Errorf("payment event %s has no usable metadata", event.ProcessorPaymentID)
	}

	if event.InstallmentID != "" {
		_, err := s.plans.RecordInstallmentPayment(ctx, event.TenantID, event.InstallmentID, &domain.RecordInstallmentPaymentRequest{
			Amount:             event.Amount,
			PaymentMethod:      domain.PaymentMethodCard,
			Processor:          "stripe",
			ProcessorPaymentID: event.ProcessorPaymentID,
		})
		return err
	}

	_, err := s.debts.RecordPayment(ctx, event.TenantID, event.DebtID, &domain.RecordPaymentRequest{
		Amount:             event.Amount,
		PaymentMethod:      domain.PaymentMethodCard,
		Processor:          "stripe",
		ProcessorPaymentID: event.ProcessorPaymentID,
	})
	return err
}
