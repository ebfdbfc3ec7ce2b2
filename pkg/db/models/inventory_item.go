package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks stock for a single product. Order placement moves
// quantity from available to reserved; payment capture burns the reservation
// and failure or cancellation returns it.
type InventoryItem struct {
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	ReservedQty  int       `gorm:"column:reserved_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
