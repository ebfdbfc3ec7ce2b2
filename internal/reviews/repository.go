package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(review).Error
}

// ListByProduct returns a product's reviews newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, *pagination.Meta, error) {
	base := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ?", productID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var reviews []models.Review
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&reviews).Error
	if err != nil {
		return nil, nil, err
	}

	meta := pagination.BuildMeta(params, total)
	return reviews, &meta, nil
}

// RatingAggregate recomputes a product's rating from scratch.
func (r *Repository) RatingAggregate(ctx context.Context, productID uuid.UUID) (avg float64, count int, err error) {
	var row struct {
		Avg   *float64
		Count int
	}
	err = r.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	if row.Avg != nil {
		avg = *row.Avg
	}
	return avg, row.Count, nil
}

// UpdateProductRating overwrites the product's derived rating columns.
func (r *Repository) UpdateProductRating(ctx context.Context, productID uuid.UUID, avg float64, count int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"rating": avg, "review_count": count}).Error
}

// UserNames resolves display names for the given reviewer ids.
func (r *Repository) UserNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id, name").
		Find(&users, "id IN ?", ids).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
