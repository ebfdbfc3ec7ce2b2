package reviews

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db"
	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
	"github.com/shopkartlabs/shopkart-backend/pkg/outbox"
	"github.com/shopkartlabs/shopkart-backend/pkg/outbox/payloads"
	"github.com/shopkartlabs/shopkart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type CreateReviewInput struct {
	ProductID uuid.UUID
	Rating    int
	Comment   string
}

// ReviewView is a review joined with its author's display name.
type ReviewView struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt string    `json:"createdAt"`
}

type ReviewList struct {
	Reviews []ReviewView     `json:"reviews"`
	Meta    *pagination.Meta `json:"meta"`
}

type Service interface {
	CreateReview(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*models.Review, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error)
}

type ServiceParams struct {
	Repo   *Repository
	DB     txRunner
	Outbox outboxPublisher
	Logger *logger.Logger
}

type service struct {
	repo   *Repository
	db     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   params.Repo,
		db:     params.DB,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

// CreateReview stores one review per (product, user) and recomputes the
// product's rating columns in the same transaction.
func (s *service) CreateReview(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*models.Review, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	review := models.Review{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    userID,
		Rating:    input.Rating,
	}
	if comment := strings.TrimSpace(input.Comment); comment != "" {
		review.Comment = &comment
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var product models.Product
		err := tx.WithContext(ctx).
			First(&product, "id = ? AND status = ?", input.ProductID, enums.ProductStatusActive).Error
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		if err := repo.Create(ctx, &review); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeValidation, "product already reviewed by this user")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}

		avg, count, err := repo.RatingAggregate(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate ratings")
		}
		rounded := math.Round(avg*100) / 100
		if err := repo.UpdateProductRating(ctx, input.ProductID, rounded, count); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product rating")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   input.ProductID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: payloads.ReviewCreatedEvent{
				ReviewID:    review.ID,
				ProductID:   input.ProductID,
				UserID:      userID,
				Rating:      input.Rating,
				NewAverage:  rounded,
				ReviewCount: count,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithField(ctx, "product_id", input.ProductID.String())
	s.logg.Info(logCtx, "review created")
	return &review, nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	reviews, meta, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}

	ids := make([]uuid.UUID, 0, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.UserID)
	}
	names, err := s.repo.UserNames(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve reviewer names")
	}

	views := make([]ReviewView, 0, len(reviews))
	for _, rv := range reviews {
		view := ReviewView{
			ID:        rv.ID,
			ProductID: rv.ProductID,
			UserID:    rv.UserID,
			UserName:  names[rv.UserID],
			Rating:    rv.Rating,
			CreatedAt: rv.CreatedAt.UTC().Format(time.RFC3339),
		}
		if rv.Comment != nil {
			view.Comment = *rv.Comment
		}
		views = append(views, view)
	}

	return &ReviewList{Reviews: views, Meta: meta}, nil
}
