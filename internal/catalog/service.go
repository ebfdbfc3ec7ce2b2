package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

// Service exposes catalog browsing plus the seller-side listing CRUD.
type Service interface {
	ListProducts(ctx context.Context, query ListQuery) (*ProductList, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateListing(ctx context.Context, sellerID uuid.UUID, input UpsertProductInput) (*models.Product, error)
	UpdateListing(ctx context.Context, sellerID, productID uuid.UUID, input UpsertProductInput) (*models.Product, error)
	ArchiveListing(ctx context.Context, sellerID, productID uuid.UUID) error
	ListSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error)
}

type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) ListProducts(ctx context.Context, query ListQuery) (*ProductList, error) {
	products, meta, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	facets, err := s.repo.FacetOptions(ctx, query.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate facets")
	}
	return &ProductList{Products: products, Meta: meta, Filters: facets}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	detail, err := s.repo.GetDetail(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return detail, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return categories, nil
}

func (s *service) CreateListing(ctx context.Context, sellerID uuid.UUID, input UpsertProductInput) (*models.Product, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateListing(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:    sellerID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Brand:       strings.TrimSpace(input.Brand),
		Tags:        pq.StringArray(input.Tags),
		Images:      pq.StringArray(input.Images),
		PricePaise:  input.PricePaise,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	stock := 0
	if input.Stock != nil {
		stock = *input.Stock
	}
	if err := s.repo.UpsertInventory(ctx, created.ID, stock); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set inventory")
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", created.ID.String()), "product listed")
	return created, nil
}

func (s *service) UpdateListing(ctx context.Context, sellerID, productID uuid.UUID, input UpsertProductInput) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	if err := validateListing(input); err != nil {
		return nil, err
	}

	product.Title = strings.TrimSpace(input.Title)
	product.Description = strings.TrimSpace(input.Description)
	product.Category = strings.TrimSpace(input.Category)
	product.Brand = strings.TrimSpace(input.Brand)
	product.Tags = pq.StringArray(input.Tags)
	product.Images = pq.StringArray(input.Images)
	product.PricePaise = input.PricePaise

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	if input.Stock != nil {
		if err := s.repo.UpsertInventory(ctx, updated.ID, *input.Stock); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set inventory")
		}
	}
	return updated, nil
}

func (s *service) ArchiveListing(ctx context.Context, sellerID, productID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, sellerID, productID); err != nil {
		return err
	}
	if err := s.repo.ArchiveProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archive product")
	}
	return nil
}

func (s *service) ListSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	products, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}
	return products, nil
}

func (s *service) ownedProduct(ctx context.Context, sellerID, productID uuid.UUID) (*models.Product, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}
	return product, nil
}

func validateListing(input UpsertProductInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}
	if input.PricePaise <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	return nil
}
