package enums

// ProductStatus marks a listing as browsable or retired.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// ProductSort names the supported catalog sort keys.
type ProductSort string

const (
	SortRelevance  ProductSort = "relevance"
	SortPriceAsc   ProductSort = "price_asc"
	SortPriceDesc  ProductSort = "price_desc"
	SortRating     ProductSort = "rating"
	SortNewest     ProductSort = "newest"
	SortPopularity ProductSort = "popularity"
)

// ParseProductSort maps a raw query value onto a known sort key,
// falling back to relevance.
func ParseProductSort(raw string) ProductSort {
	switch ProductSort(raw) {
	case SortPriceAsc, SortPriceDesc, SortRating, SortNewest, SortPopularity:
		return ProductSort(raw)
	}
	return SortRelevance
}
