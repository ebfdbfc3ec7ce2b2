package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
)

// Order is a priced, placed order. Totals are computed once at creation and
// never recomputed on read: TotalPaise = SubtotalPaise - DiscountPaise +
// TaxPaise + ShippingPaise.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	GatewayOrderID   *string             `gorm:"column:gateway_order_id;index:orders_gateway_order_id_idx"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id"`
	SubtotalPaise    int64               `gorm:"column:subtotal_paise;not null"`
	DiscountPaise    int64               `gorm:"column:discount_paise;not null;default:0"`
	TaxPaise         int64               `gorm:"column:tax_paise;not null;default:0"`
	ShippingPaise    int64               `gorm:"column:shipping_paise;not null;default:0"`
	TotalPaise       int64               `gorm:"column:total_paise;not null"`
	Items            []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt      *time.Time          `gorm:"column:confirmed_at"`
	CancelledAt      *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
