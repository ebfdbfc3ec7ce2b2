package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

const (
	// MaxSuggestions caps any single suggestion response.
	MaxSuggestions = 10
	suggestionCap  = 20
	minQueryLen    = 2
)

const (
	TypeProduct  = "product"
	TypeCategory = "category"
	TypeBrand    = "brand"
)

// cannedSuggestions keeps the search box useful when lookups fail.
var cannedSuggestions = []string{
	"Electronics",
	"Footwear",
	"Clothing",
	"Home & Kitchen",
	"Beauty",
	"Sports",
	"Books",
	"Toys",
}

type Suggestion struct {
	Text  string `json:"text"`
	Type  string `json:"type"`
	Count int    `json:"count,omitempty"`
}

type SuggestResult struct {
	Suggestions   []Suggestion `json:"suggestions"`
	QueryTooShort bool         `json:"queryTooShort,omitempty"`
}

type Service interface {
	Suggest(ctx context.Context, query string, limit int) (*SuggestResult, error)
	Recommend(ctx context.Context, seedID uuid.UUID, limit int) ([]models.Product, error)
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
		return nil, fmt.Errorf("search repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

// Suggest merges product, category and brand matches into one ranked list.
// Product names get half the limit, categories and brands a quarter each; a
// description/tag fallback tops up sparse results. Lookup failures degrade
// to a canned list filtered by the query.
func (s *service) Suggest(ctx context.Context, query string, limit int) (*SuggestResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLen {
		return &SuggestResult{Suggestions: []Suggestion{}, QueryTooShort: true}, nil
	}
	if limit <= 0 {
		limit = MaxSuggestions
	}
	if limit > suggestionCap {
		limit = suggestionCap
	}

	var suggestions []Suggestion

	titles, err := s.repo.ProductTitles(ctx, query, limit/2)
	if err != nil {
		return s.degrade(ctx, query, limit, err), nil
	}
	for _, title := range titles {
		suggestions = append(suggestions, Suggestion{Text: title, Type: TypeProduct})
	}

	categories, err := s.repo.CategoryCounts(ctx, query, limit/4)
	if err != nil {
		return s.degrade(ctx, query, limit, err), nil
	}
	for _, c := range categories {
		suggestions = append(suggestions, Suggestion{Text: c.Name, Type: TypeCategory, Count: c.Count})
	}

	brands, err := s.repo.BrandCounts(ctx, query, limit/4)
	if err != nil {
		return s.degrade(ctx, query, limit, err), nil
	}
	for _, b := range brands {
		suggestions = append(suggestions, Suggestion{Text: b.Name, Type: TypeBrand, Count: b.Count})
	}

	if len(suggestions) < limit/2 {
		fallback, err := s.repo.FallbackTitles(ctx, query, titles, limit/2)
		if err != nil {
			return s.degrade(ctx, query, limit, err), nil
		}
		for _, title := range fallback {
			suggestions = append(suggestions, Suggestion{Text: title, Type: TypeProduct})
		}
	}

	ranked := rankSuggestions(query, dedupeSuggestions(suggestions))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return &SuggestResult{Suggestions: ranked}, nil
}

// Recommend returns products from the seed's category, best rated first,
// never the seed itself. Without a seed, or when the seed is unknown or has
// no category neighbours, it falls back to the top-rated list.
func (s *service) Recommend(ctx context.Context, seedID uuid.UUID, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = MaxSuggestions
	}
	if limit > suggestionCap {
		limit = suggestionCap
	}

	if seedID != uuid.Nil {
		category, err := s.repo.ProductCategory(ctx, seedID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// unknown seed, serve the generic list
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seed product")
		default:
			related, err := s.repo.SameCategory(ctx, category, seedID, limit)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load related products")
			}
			if len(related) > 0 {
				return related, nil
			}
		}
	}

	products, err := s.repo.TopRated(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recommendations")
	}
	return products, nil
}

// degrade filters the canned list by substring match. It never errors so the
// search box stays responsive when the database does not.
func (s *service) degrade(ctx context.Context, query string, limit int, cause error) *SuggestResult {
	logCtx := s.logg.WithField(ctx, "error", cause.Error())
	s.logg.Warn(logCtx, "suggestion lookup failed, serving canned list")

	lowered := strings.ToLower(query)
	filtered := make([]Suggestion, 0, len(cannedSuggestions))
	for _, text := range cannedSuggestions {
		if strings.Contains(strings.ToLower(text), lowered) {
			filtered = append(filtered, Suggestion{Text: text, Type: TypeCategory})
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return &SuggestResult{Suggestions: filtered}
}

// dedupeSuggestions keeps the first occurrence of each text, compared
// case-insensitively.
func dedupeSuggestions(suggestions []Suggestion) []Suggestion {
	seen := make(map[string]struct{}, len(suggestions))
	out := make([]Suggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		key := strings.ToLower(sg.Text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sg)
	}
	return out
}

// rankSuggestions orders exact matches first, then prefix matches, then
// products before categories and brands, then by descending count.
func rankSuggestions(query string, suggestions []Suggestion) []Suggestion {
	lowered := strings.ToLower(query)
	score := func(sg Suggestion) (int, int, int) {
		text := strings.ToLower(sg.Text)
		match := 2
		if text == lowered {
			match = 0
		} else if strings.HasPrefix(text, lowered) {
			match = 1
		}
		kind := 1
		if sg.Type == TypeProduct {
			kind = 0
		}
		return match, kind, -sg.Count
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		mi, ki, ci := score(suggestions[i])
		mj, kj, cj := score(suggestions[j])
		if mi != mj {
			return mi < mj
		}
		if ki != kj {
			return ki < kj
		}
		return ci < cj
	})
	return suggestions
}
