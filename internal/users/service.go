package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

// UpdateProfileInput carries the buyer-editable profile fields. Nil means
// leave the field as is.
type UpdateProfileInput struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Address    *string `json:"address" validate:"omitempty,max=500"`
	City       *string `json:"city" validate:"omitempty,max=120"`
	PostalCode *string `json:"postalCode" validate:"omitempty,max=12"`
}

// DashboardSummary is the buyer's account overview.
type DashboardSummary struct {
	TotalOrders     int64          `json:"totalOrders"`
	PendingOrders   int64          `json:"pendingOrders"`
	ConfirmedOrders int64          `json:"confirmedOrders"`
	CancelledOrders int64          `json:"cancelledOrders"`
	TotalSpentPaise int64          `json:"totalSpentPaise"`
	WishlistCount   int64          `json:"wishlistCount"`
	ReviewCount     int64          `json:"reviewCount"`
	RecentOrders    []models.Order `json:"recentOrders"`
}

type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.User, error)
	GetDashboard(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error)
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
		return nil, fmt.Errorf("users repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		updates["city"] = strings.TrimSpace(*input.City)
	}
	if input.PostalCode != nil {
		updates["postal_code"] = strings.TrimSpace(*input.PostalCode)
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no profile fields to update")
	}

	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return s.GetProfile(ctx, userID)
}

// GetDashboard aggregates the buyer's order, wishlist and review activity.
// Spend counts only orders that were not cancelled.
func (s *service) GetDashboard(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	all, err := s.repo.orderStats(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order stats")
	}
	pending, err := s.repo.orderStats(ctx, userID, enums.OrderStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "pending order stats")
	}
	confirmed, err := s.repo.orderStats(ctx, userID, enums.OrderStatusConfirmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirmed order stats")
	}
	cancelled, err := s.repo.orderStats(ctx, userID, enums.OrderStatusCancelled)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelled order stats")
	}
	wishlist, err := s.repo.wishlistCount(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "wishlist count")
	}
	reviews, err := s.repo.reviewCount(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "review count")
	}
	recent, err := s.repo.recentOrders(ctx, userID, 5)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recent orders")
	}

	return &DashboardSummary{
		TotalOrders:     all.Count,
		PendingOrders:   pending.Count,
		ConfirmedOrders: confirmed.Count,
		CancelledOrders: cancelled.Count,
		TotalSpentPaise: confirmed.TotalPaise,
		WishlistCount:   wishlist,
		ReviewCount:     reviews,
		RecentOrders:    recent,
	}, nil
}
