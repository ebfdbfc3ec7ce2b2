package catalog

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	"github.com/shopkartlabs/shopkart-backend/pkg/pagination"
)

// ListQuery is the typed filter set for the browse endpoint. Every knob is
// optional; zero values mean "no constraint".
type ListQuery struct {
	Category      string
	Query         string
	Brands        []string
	PriceMinPaise *int64
	PriceMaxPaise *int64
	RatingMin     *float64
	InStock       bool
	Sort          enums.ProductSort
	ExcludeID     *uuid.UUID
	Pagination    pagination.Params
}

// Apply compiles the query onto a products statement. Text matches are
// lowercased on both sides so they behave the same on every backing store.
func (q ListQuery) Apply(db *gorm.DB) *gorm.DB {
	stmt := db.Where("status = ?", enums.ProductStatusActive)

	if category := strings.TrimSpace(q.Category); category != "" {
		stmt = stmt.Where("LOWER(category) = LOWER(?)", category)
	}
	if text := strings.TrimSpace(q.Query); text != "" {
		pattern := "%" + strings.ToLower(text) + "%"
		stmt = stmt.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(CAST(tags AS TEXT)) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if len(q.Brands) > 0 {
		lowered := make([]string, 0, len(q.Brands))
		for _, brand := range q.Brands {
			if trimmed := strings.TrimSpace(brand); trimmed != "" {
				lowered = append(lowered, strings.ToLower(trimmed))
			}
		}
		if len(lowered) > 0 {
			stmt = stmt.Where("LOWER(brand) IN ?", lowered)
		}
	}
	if q.PriceMinPaise != nil {
		stmt = stmt.Where("price_paise >= ?", *q.PriceMinPaise)
	}
	if q.PriceMaxPaise != nil {
		stmt = stmt.Where("price_paise <= ?", *q.PriceMaxPaise)
	}
	if q.RatingMin != nil {
		stmt = stmt.Where("rating >= ?", *q.RatingMin)
	}
	if q.InStock {
		stmt = stmt.Where(
			"EXISTS (SELECT 1 FROM inventory_items i WHERE i.product_id = products.id AND i.available_qty > 0)")
	}
	if q.ExcludeID != nil {
		stmt = stmt.Where("id <> ?", *q.ExcludeID)
	}
	return stmt
}

// orderClause maps the sort key onto SQL. Relevance is the default tuple of
// rating, then review count, then recency.
func (q ListQuery) orderClause() string {
	switch q.Sort {
	case enums.SortPriceAsc:
		return "price_paise ASC"
	case enums.SortPriceDesc:
		return "price_paise DESC"
	case enums.SortRating:
		return "rating DESC"
	case enums.SortNewest:
		return "created_at DESC"
	case enums.SortPopularity:
		return "review_count DESC"
	default:
		return "rating DESC, review_count DESC, created_at DESC"
	}
}
