package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	"github.com/shopkartlabs/shopkart-backend/pkg/pagination"
)

const topTagLimit = 20

// Repository owns catalog persistence: browse queries, facets, categories,
// and the seller-side product CRUD.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List runs the compiled browse query and returns one page plus the total.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Product, pagination.Meta, error) {
	params := query.Pagination.Normalize()

	base := query.Apply(r.db.WithContext(ctx).Model(&models.Product{}))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, pagination.Meta{}, err
	}

	var products []models.Product
	err := base.Session(&gorm.Session{}).
		Order(query.orderClause()).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return products, pagination.BuildMeta(params, total), nil
}

// FacetOptions aggregates the filter space for a category scope: the brand
// list alphabetically, the most frequent tags, and the price bounds. Tag
// frequencies are counted in-app since tags live in an array column.
func (r *Repository) FacetOptions(ctx context.Context, category string) (FacetOptions, error) {
	scope := func() *gorm.DB {
		stmt := r.db.WithContext(ctx).Model(&models.Product{}).
			Where("status = ?", enums.ProductStatusActive)
		if trimmed := strings.TrimSpace(category); trimmed != "" {
			stmt = stmt.Where("LOWER(category) = LOWER(?)", trimmed)
		}
		return stmt
	}

	options := FacetOptions{Brands: []string{}, TopTags: []TagCount{}}

	if err := scope().Distinct("brand").Order("brand ASC").Pluck("brand", &options.Brands).Error; err != nil {
		return FacetOptions{}, err
	}

	var tagRows []pq.StringArray
	if err := scope().Pluck("tags", &tagRows).Error; err != nil {
		return FacetOptions{}, err
	}
	options.TopTags = topTags(tagRows, topTagLimit)

	var bounds struct {
		Min *int64
		Max *int64
	}
	err := scope().Select("MIN(price_paise) AS min, MAX(price_paise) AS max").Scan(&bounds).Error
	if err != nil {
		return FacetOptions{}, err
	}
	if bounds.Min != nil {
		options.PriceMinPaise = *bounds.Min
	}
	if bounds.Max != nil {
		options.PriceMaxPaise = *bounds.Max
	}

	return options, nil
}

func topTags(rows []pq.StringArray, limit int) []TagCount {
	counts := map[string]int{}
	display := map[string]string{}
	for _, tags := range rows {
		for _, tag := range tags {
			trimmed := strings.TrimSpace(tag)
			if trimmed == "" {
				continue
			}
			key := strings.ToLower(trimmed)
			counts[key]++
			if _, ok := display[key]; !ok {
				display[key] = trimmed
			}
		}
	}

	ranked := make([]TagCount, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, TagCount{Tag: display[key], Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Tag < ranked[j].Tag
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// FindByID loads a product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetDetail fetches a product with its live stock and the seller summary.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Inventory").First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	var seller models.User
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", product.SellerID).Error; err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	detail := &ProductDetail{
		Product: product,
		Seller: SellerSummary{
			ID:        seller.ID,
			Name:      seller.Name,
			AvatarURL: seller.AvatarURL,
		},
	}
	if product.Inventory != nil {
		detail.Stock = product.Inventory.AvailableQty
		detail.InStock = product.Inventory.AvailableQty > 0
	}
	return detail, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// CreateProduct inserts a new listing.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves the full product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ArchiveProduct retires a listing from browse without deleting history.
func (r *Repository) ArchiveProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("status", enums.ProductStatusArchived).Error
}

// ListBySeller returns all of a seller's listings, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Preload("Inventory").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

// UpsertInventory sets the available stock for a product.
func (r *Repository) UpsertInventory(ctx context.Context, productID uuid.UUID, availableQty int) error {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(&models.InventoryItem{
			ProductID:    productID,
			AvailableQty: availableQty,
		}).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Update("available_qty", availableQty).Error
}
