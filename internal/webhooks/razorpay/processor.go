package razorpay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopkartlabs/shopkart-backend/internal/payments"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
	"github.com/shopkartlabs/shopkart-backend/pkg/redis"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"

	replayGuardTTL = 24 * time.Hour
)

type signatureVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

// webhookEvent is the gateway's envelope. Only the fields the processor
// reads are mapped.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity orderEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	ErrorDescription string `json:"error_description"`
}

type orderEntity struct {
	ID string `json:"id"`
}

// Processor consumes the payment gateway's webhook callbacks and funnels
// them into the payment service's single apply operation.
type Processor struct {
	gateway  signatureVerifier
	payments payments.Service
	replay   redis.IdempotencyStore
	logg     *logger.Logger
}

type ProcessorParams struct {
	Gateway  signatureVerifier
	Payments payments.Service
	Replay   redis.IdempotencyStore
	Logger   *logger.Logger
}

func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway verifier required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Processor{
		gateway:  params.Gateway,
		payments: params.Payments,
		replay:   params.Replay,
		logg:     params.Logger,
	}, nil
}

// Process verifies the body signature, short-circuits replays, and applies
// the event's payment outcome. Unknown event names are acknowledged and
// skipped so the gateway does not retry them forever.
func (p *Processor) Process(ctx context.Context, body []byte, signature string) error {
	if !p.gateway.VerifyWebhookSignature(body, signature) {
		return pkgerrors.New(pkgerrors.CodeVerification, "webhook signature mismatch")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook body")
	}

	logCtx := p.logg.WithField(ctx, "event", event.Event)

	var input payments.ApplyInput
	switch event.Event {
	case EventPaymentCaptured, EventOrderPaid:
		input = payments.ApplyInput{
			GatewayOrderID:   event.Payload.Payment.Entity.OrderID,
			GatewayPaymentID: event.Payload.Payment.Entity.ID,
			Outcome:          enums.PaymentOutcomeCaptured,
		}
		if input.GatewayOrderID == "" {
			input.GatewayOrderID = event.Payload.Order.Entity.ID
		}
	case EventPaymentFailed:
		input = payments.ApplyInput{
			GatewayOrderID:   event.Payload.Payment.Entity.OrderID,
			GatewayPaymentID: event.Payload.Payment.Entity.ID,
			Outcome:          enums.PaymentOutcomeFailed,
			Reason:           event.Payload.Payment.Entity.ErrorDescription,
		}
	default:
		p.logg.Info(logCtx, "ignoring unhandled webhook event")
		return nil
	}

	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing gateway references")
	}

	if p.replay != nil {
		key := p.replay.IdempotencyKey("rzp-webhook", input.GatewayPaymentID+":"+event.Event)
		fresh, err := p.replay.SetNX(ctx, key, time.Now().Unix(), replayGuardTTL)
		if err != nil {
			// The apply operation is idempotent; a guard outage only
			// costs a redundant database round trip.
			p.logg.Warn(p.logg.WithField(logCtx, "error", err.Error()), "webhook replay guard unavailable")
		} else if !fresh {
			p.logg.Info(logCtx, "webhook event already processed")
			return nil
		}
	}

	if _, err := p.payments.ApplyPaymentResult(ctx, input); err != nil {
		return err
	}
	p.logg.Info(logCtx, "webhook event applied")
	return nil
}
