package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
)

// Product represents a seller listing. Rating and ReviewCount are derived
// columns overwritten whenever a review is created.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index:products_seller_id_idx"`
	Title       string              `gorm:"column:title;not null"`
	Description string              `gorm:"column:description;not null"`
	Category    string              `gorm:"column:category;not null;index:products_category_idx"`
	Brand       string              `gorm:"column:brand;not null"`
	Tags        pq.StringArray      `gorm:"column:tags;type:text[]"`
	Images      pq.StringArray      `gorm:"column:images;type:text[]"`
	PricePaise  int64               `gorm:"column:price_paise;not null"`
	Status      enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Rating      float64             `gorm:"column:rating;not null;default:0"`
	ReviewCount int                 `gorm:"column:review_count;not null;default:0"`
	Inventory   *InventoryItem      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
