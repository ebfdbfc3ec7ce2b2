package search

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func likePattern(query string) string {
	return "%" + strings.ToLower(query) + "%"
}

// ProductTitles returns active product titles matching the query.
func (r *Repository) ProductTitles(ctx context.Context, query string, limit int) ([]string, error) {
	var titles []string
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", enums.ProductStatusActive).
		Where("LOWER(title) LIKE ?", likePattern(query)).
		Order("rating DESC, review_count DESC").
		Limit(limit).
		Pluck("title", &titles).Error
	return titles, err
}

type namedCount struct {
	Name  string
	Count int
}

// CategoryCounts returns matching category names with how many active
// products each carries.
func (r *Repository) CategoryCounts(ctx context.Context, query string, limit int) ([]namedCount, error) {
	var rows []namedCount
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("category AS name, COUNT(*) AS count").
		Where("status = ?", enums.ProductStatusActive).
		Where("LOWER(category) LIKE ?", likePattern(query)).
		Group("category").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// BrandCounts returns matching brand names with their active product counts.
func (r *Repository) BrandCounts(ctx context.Context, query string, limit int) ([]namedCount, error) {
	var rows []namedCount
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("brand AS name, COUNT(*) AS count").
		Where("status = ?", enums.ProductStatusActive).
		Where("brand <> ''").
		Where("LOWER(brand) LIKE ?", likePattern(query)).
		Group("brand").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// FallbackTitles matches the query against descriptions and tags for
// products whose titles did not already match.
func (r *Repository) FallbackTitles(ctx context.Context, query string, exclude []string, limit int) ([]string, error) {
	pattern := likePattern(query)
	tx := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", enums.ProductStatusActive).
		Where("LOWER(description) LIKE ? OR LOWER(CAST(tags AS TEXT)) LIKE ?", pattern, pattern)
	if len(exclude) > 0 {
		lowered := make([]string, 0, len(exclude))
		for _, title := range exclude {
			lowered = append(lowered, strings.ToLower(title))
		}
		tx = tx.Where("LOWER(title) NOT IN ?", lowered)
	}

	var titles []string
	err := tx.Order("rating DESC").Limit(limit).Pluck("title", &titles).Error
	return titles, err
}

// ProductCategory returns the category of an active product.
func (r *Repository) ProductCategory(ctx context.Context, id uuid.UUID) (string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND status = ?", id, enums.ProductStatusActive).
		Limit(1).
		Pluck("category", &categories).Error
	if err != nil {
		return "", err
	}
	if len(categories) == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return categories[0], nil
}

// SameCategory returns top-rated active products sharing a category,
// excluding the seed product.
func (r *Repository) SameCategory(ctx context.Context, category string, exclude uuid.UUID, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ProductStatusActive).
		Where("category = ?", category).
		Where("id <> ?", exclude).
		Order("rating DESC, review_count DESC, created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// TopRated returns the highest-rated active products for recommendations.
func (r *Repository) TopRated(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ProductStatusActive).
		Order("rating DESC, review_count DESC, created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}
