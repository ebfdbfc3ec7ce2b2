package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots one product line at order time. Line items are
// owned by the order and never mutated independently.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:order_line_items_order_id_idx"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	TotalPaise     int64     `gorm:"column:total_paise;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
