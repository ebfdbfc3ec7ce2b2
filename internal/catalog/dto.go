package catalog

import (
	"github.com/google/uuid"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/pagination"
)

// TagCount is one tag with its occurrence count across the filtered set.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// FacetOptions summarizes the filter space of the current category scope.
type FacetOptions struct {
	Brands        []string   `json:"brands"`
	TopTags       []TagCount `json:"topTags"`
	PriceMinPaise int64      `json:"priceMinPaise"`
	PriceMaxPaise int64      `json:"priceMaxPaise"`
}

// ProductList is one browse page plus pagination metadata and facets.
type ProductList struct {
	Products []models.Product `json:"products"`
	Meta     pagination.Meta  `json:"pagination"`
	Filters  FacetOptions     `json:"filterOptions"`
}

// SellerSummary is the minimal seller block attached to a product detail.
type SellerSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
}

// ProductDetail combines the product row with live stock and its seller.
type ProductDetail struct {
	Product models.Product `json:"product"`
	InStock bool           `json:"inStock"`
	Stock   int            `json:"stock"`
	Seller  SellerSummary  `json:"seller"`
}

// UpsertProductInput carries the writable product fields for seller CRUD.
type UpsertProductInput struct {
	Title       string
	Description string
	Category    string
	Brand       string
	Tags        []string
	Images      []string
	PricePaise  int64
	Stock       *int
}
