package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/internal/checkout/reservation"
	dbpkg "github.com/shopkartlabs/shopkart-backend/pkg/db"
	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
	"github.com/shopkartlabs/shopkart-backend/pkg/outbox"
	"github.com/shopkartlabs/shopkart-backend/pkg/outbox/payloads"
)

const orderNumberRetries = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderItemInput is one requested line: the product and how many units.
type OrderItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// PlaceOrderInput carries everything needed to convert a selection into a
// priced order. The discount is applied verbatim.
type PlaceOrderInput struct {
	UserID        uuid.UUID
	Items         []OrderItemInput
	DiscountPaise int64
}

// Service places orders: it validates stock, prices the selection at the
// product's current price, reserves inventory, and persists the order with
// its line items in one transaction.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

type ServiceParams struct {
	DB                txRunner
	Pricer            *Pricer
	Outbox            outboxPublisher
	Logger            *logger.Logger
	OrderNumberDigits int
}

type service struct {
	db           txRunner
	pricer       *Pricer
	outbox       outboxPublisher
	logg         *logger.Logger
	numberDigits int
	numberFn     func(time.Time, int) string
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:           params.DB,
		pricer:       params.Pricer,
		outbox:       params.Outbox,
		logg:         params.Logger,
		numberDigits: params.OrderNumberDigits,
		numberFn:     GenerateOrderNumber,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item quantity must be positive for product %s", item.ProductID))
		}
	}
	if input.DiscountPaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	var order *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		products, err := loadProducts(ctx, tx, input.Items)
		if err != nil {
			return err
		}

		requests := make([]reservation.InventoryReservationRequest, 0, len(input.Items))
		for _, item := range input.Items {
			requests = append(requests, reservation.InventoryReservationRequest{
				ProductID: item.ProductID,
				Qty:       item.Qty,
			})
		}
		results, err := reservation.ReserveInventory(ctx, tx, requests)
		if err != nil {
			return err
		}
		for _, result := range results {
			if !result.Reserved {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("product %s: %s", result.ProductID, result.Reason))
			}
		}

		var subtotal int64
		lineItems := make([]models.OrderLineItem, 0, len(input.Items))
		for _, item := range input.Items {
			product := products[item.ProductID]
			lineTotal := product.PricePaise * int64(item.Qty)
			subtotal += lineTotal
			lineItems = append(lineItems, models.OrderLineItem{
				ProductID:      product.ID,
				Title:          product.Title,
				UnitPricePaise: product.PricePaise,
				Qty:            item.Qty,
				TotalPaise:     lineTotal,
			})
		}

		totals, err := s.pricer.Compute(subtotal, input.DiscountPaise)
		if err != nil {
			return err
		}

		created, err := s.createOrderWithRetry(ctx, tx, input.UserID, totals, lineItems)
		if err != nil {
			return err
		}
		order = created

		if err := clearCart(ctx, tx, input.UserID); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				TotalPaise:  order.TotalPaise,
				ItemCount:   len(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order placed")
	return order, nil
}

func (s *service) createOrderWithRetry(ctx context.Context, tx *gorm.DB, userID uuid.UUID, totals Totals, items []models.OrderLineItem) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		order := models.Order{
			ID:            uuid.New(),
			OrderNumber:   s.numberFn(time.Now(), s.numberDigits),
			UserID:        userID,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusPending,
			SubtotalPaise: totals.SubtotalPaise,
			DiscountPaise: totals.DiscountPaise,
			TaxPaise:      totals.TaxPaise,
			ShippingPaise: totals.ShippingPaise,
			TotalPaise:    totals.TotalPaise,
		}
		for i := range items {
			items[i].ID = uuid.New()
			items[i].OrderID = order.ID
		}
		order.Items = items

		// Nested Transaction issues a savepoint, so a duplicate order
		// number does not abort the enclosing transaction on Postgres.
		err := tx.Transaction(func(inner *gorm.DB) error {
			return inner.WithContext(ctx).Create(&order).Error
		})
		if err == nil {
			return &order, nil
		}
		if !dbpkg.IsUniqueViolation(err, "orders_order_number_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "order number collision")
}

func loadProducts(ctx context.Context, tx *gorm.DB, items []OrderItemInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	var products []models.Product
	err := tx.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, enums.ProductStatusActive).
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	missing := make([]string, 0)
	for _, item := range items {
		if _, ok := byID[item.ProductID]; !ok {
			missing = append(missing, item.ProductID.String())
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("product not found: %s", strings.Join(missing, ", ")))
	}
	return byID, nil
}

func clearCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	var cart models.Cart
	err := tx.WithContext(ctx).First(&cart, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := tx.WithContext(ctx).Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}
