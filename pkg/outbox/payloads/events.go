package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedEvent signals a newly placed order with reserved inventory.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	TotalPaise  int64     `json:"total_paise"`
	ItemCount   int       `json:"item_count"`
}

// OrderCancelledEvent is emitted when a buyer cancels a pending order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// PaymentCapturedEvent reports a captured gateway payment applied to an order.
type PaymentCapturedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	AmountPaise      int64     `json:"amount_paise"`
}

// PaymentFailedEvent reports a failed gateway payment and released stock.
type PaymentFailedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	Reason           string    `json:"reason,omitempty"`
}

// ReviewCreatedEvent is emitted after a review lands and ratings recompute.
type ReviewCreatedEvent struct {
	ReviewID    uuid.UUID `json:"review_id"`
	ProductID   uuid.UUID `json:"product_id"`
	UserID      uuid.UUID `json:"user_id"`
	Rating      int       `json:"rating"`
	NewAverage  float64   `json:"new_average"`
	ReviewCount int       `json:"review_count"`
}
