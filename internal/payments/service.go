package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/internal/checkout/reservation"
	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
	"github.com/shopkartlabs/shopkart-backend/pkg/outbox"
	"github.com/shopkartlabs/shopkart-backend/pkg/outbox/payloads"
	"github.com/shopkartlabs/shopkart-backend/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, input razorpay.CreateOrderInput) (*razorpay.GatewayOrder, error)
	VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool
	KeyID() string
}

// Intent is what a client needs to open the gateway's payment widget.
type Intent struct {
	OrderID        uuid.UUID `json:"orderId"`
	GatewayOrderID string    `json:"gatewayOrderId"`
	AmountPaise    int64     `json:"amountPaise"`
	Currency       string    `json:"currency"`
	KeyID          string    `json:"keyId"`
}

// VerifyInput is the browser-side capture callback payload.
type VerifyInput struct {
	OrderID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// ApplyInput records a gateway outcome against the order it references.
// The same input may arrive twice (sync verify plus async webhook); applying
// it twice must be a no-op.
type ApplyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Outcome          enums.PaymentOutcome
	Reason           string
	Actor            *outbox.ActorRef
}

// Service owns the payment lifecycle: opening gateway orders, verifying
// browser captures, and applying gateway outcomes exactly once.
type Service interface {
	CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*Intent, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyInput) (*models.Order, error)
	ApplyPaymentResult(ctx context.Context, input ApplyInput) (*models.Order, error)
}

type ServiceParams struct {
	Repo    *Repository
	DB      txRunner
	Gateway gatewayClient
	Outbox  outboxPublisher
	Logger  *logger.Logger
}

type service struct {
	repo    *Repository
	db      txRunner
	gateway gatewayClient
	outbox  outboxPublisher
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		db:      params.DB,
		gateway: params.Gateway,
		outbox:  params.Outbox,
		logg:    params.Logger,
	}, nil
}

// CreateIntent opens a gateway order for a pending local order. Calling it
// again for the same order returns the already-opened gateway order instead
// of creating a second one.
func (s *service) CreateIntent(ctx context.Context, userID, orderID uuid.UUID) (*Intent, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is not awaiting payment")
	}

	if order.GatewayOrderID != nil && *order.GatewayOrderID != "" {
		return &Intent{
			OrderID:        order.ID,
			GatewayOrderID: *order.GatewayOrderID,
			AmountPaise:    order.TotalPaise,
			Currency:       "INR",
			KeyID:          s.gateway.KeyID(),
		}, nil
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderInput{
		AmountPaise: order.TotalPaise,
		Receipt:     order.OrderNumber,
		Notes:       map[string]string{"orderId": order.ID.String()},
	})
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateOrder(ctx, order.ID, map[string]any{"gateway_order_id": gatewayOrder.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store gateway order id")
	}

	return &Intent{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		AmountPaise:    gatewayOrder.AmountPaise,
		Currency:       gatewayOrder.Currency,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// VerifyPayment checks the signature handed back by the gateway's browser
// widget and, when valid, applies the capture. A bad signature never touches
// order state.
func (s *service) VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.GatewayOrderID) == "" || strings.TrimSpace(input.GatewayPaymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order and payment ids required")
	}

	if !s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "payment signature mismatch")
	}

	order, err := s.ApplyPaymentResult(ctx, ApplyInput{
		GatewayOrderID:   input.GatewayOrderID,
		GatewayPaymentID: input.GatewayPaymentID,
		Outcome:          enums.PaymentOutcomeCaptured,
		Actor:            &outbox.ActorRef{UserID: userID},
	})
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

// ApplyPaymentResult transitions an order exactly once per gateway payment.
// Captures confirm the order and burn the reserved stock; failures cancel it
// and return the stock. A replay of an already-applied result is a no-op.
func (s *service) ApplyPaymentResult(ctx context.Context, input ApplyInput) (*models.Order, error) {
	if strings.TrimSpace(input.GatewayOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id required")
	}
	if strings.TrimSpace(input.GatewayPaymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway payment id required")
	}

	var applied *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderByGatewayOrderID(ctx, input.GatewayOrderID)
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no order for gateway reference")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		if order.GatewayPaymentID != nil && *order.GatewayPaymentID == input.GatewayPaymentID {
			// Replay of an already-applied result.
			applied = order
			return nil
		}
		if order.PaymentStatus != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("order payment already settled as %s", order.PaymentStatus))
		}

		now := time.Now()
		switch input.Outcome {
		case enums.PaymentOutcomeCaptured:
			for _, item := range order.Items {
				if err := reservation.CommitInventory(ctx, tx, item.ProductID, item.Qty); err != nil {
					return err
				}
			}
			err = repo.UpdateOrder(ctx, order.ID, map[string]any{
				"status":             enums.OrderStatusConfirmed,
				"payment_status":     enums.PaymentStatusCompleted,
				"gateway_payment_id": input.GatewayPaymentID,
				"confirmed_at":       now,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm order")
			}
			order.Status = enums.OrderStatusConfirmed
			order.PaymentStatus = enums.PaymentStatusCompleted
			order.GatewayPaymentID = &input.GatewayPaymentID
			order.ConfirmedAt = &now
			applied = order

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentCaptured,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         input.Actor,
				Version:       1,
				Data: payloads.PaymentCapturedEvent{
					OrderID:          order.ID,
					OrderNumber:      order.OrderNumber,
					GatewayPaymentID: input.GatewayPaymentID,
					AmountPaise:      order.TotalPaise,
				},
			})

		case enums.PaymentOutcomeFailed:
			for _, item := range order.Items {
				if err := reservation.ReleaseInventory(ctx, tx, item.ProductID, item.Qty); err != nil {
					return err
				}
			}
			err = repo.UpdateOrder(ctx, order.ID, map[string]any{
				"status":             enums.OrderStatusCancelled,
				"payment_status":     enums.PaymentStatusFailed,
				"gateway_payment_id": input.GatewayPaymentID,
				"cancelled_at":       now,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fail order payment")
			}
			order.Status = enums.OrderStatusCancelled
			order.PaymentStatus = enums.PaymentStatusFailed
			order.GatewayPaymentID = &input.GatewayPaymentID
			order.CancelledAt = &now
			applied = order

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         input.Actor,
				Version:       1,
				Data: payloads.PaymentFailedEvent{
					OrderID:          order.ID,
					OrderNumber:      order.OrderNumber,
					GatewayPaymentID: input.GatewayPaymentID,
					Reason:           input.Reason,
				},
			})

		default:
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown payment outcome %q", input.Outcome))
		}
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, applied.ID.String())
	logCtx = s.logg.WithField(logCtx, "payment_status", string(applied.PaymentStatus))
	s.logg.Info(logCtx, "payment result applied")
	return applied, nil
}
