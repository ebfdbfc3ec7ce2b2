package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	"github.com/shopkartlabs/shopkart-backend/pkg/enums"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
	"github.com/shopkartlabs/shopkart-backend/pkg/outbox"
	"github.com/shopkartlabs/shopkart-backend/pkg/razorpay"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubGateway struct {
	created     []razorpay.CreateOrderInput
	nextOrderID string
	createErr   error
	validSig    string
}

func (g *stubGateway) CreateOrder(_ context.Context, input razorpay.CreateOrderInput) (*razorpay.GatewayOrder, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, input)
	return &razorpay.GatewayOrder{
		ID:          g.nextOrderID,
		AmountPaise: input.AmountPaise,
		Currency:    "INR",
		Receipt:     input.Receipt,
	}, nil
}

func (g *stubGateway) VerifyPaymentSignature(_, _, signature string) bool {
	return signature == g.validSig
}

func (g *stubGateway) KeyID() string {
	return "rzp_test_key"
}

func setupPaymentsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  gateway_order_id TEXT,
  gateway_payment_id TEXT,
  subtotal_paise INTEGER NOT NULL,
  discount_paise INTEGER NOT NULL DEFAULT 0,
  tax_paise INTEGER NOT NULL DEFAULT 0,
  shipping_paise INTEGER NOT NULL DEFAULT 0,
  total_paise INTEGER NOT NULL,
  confirmed_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  title TEXT NOT NULL,
  unit_price_paise INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  total_paise INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
  product_id TEXT PRIMARY KEY,
  available_qty INTEGER NOT NULL DEFAULT 0,
  reserved_qty INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newPaymentsService(t *testing.T, db *gorm.DB, gateway *stubGateway) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "payments-test"})
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(db),
		DB:      &gormTxRunner{db: db},
		Gateway: gateway,
		Outbox:  outbox.NewService(outbox.NewRepository(db), logg),
		Logger:  logg,
	})
	require.NoError(t, err)
	return svc
}

func seedPendingOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, gatewayOrderID *string) models.Order {
	t.Helper()
	productID := uuid.New()
	require.NoError(t, db.Create(&models.InventoryItem{
		ProductID:    productID,
		AvailableQty: 8,
		ReservedQty:  2,
	}).Error)

	order := models.Order{
		ID:             uuid.New(),
		OrderNumber:    "ORD-TEST-" + uuid.NewString()[:8],
		UserID:         userID,
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusPending,
		GatewayOrderID: gatewayOrderID,
		SubtotalPaise:  100000,
		TaxPaise:       18000,
		TotalPaise:     118000,
		Items: []models.OrderLineItem{{
			ID:             uuid.New(),
			ProductID:      productID,
			Title:          "Thing",
			UnitPricePaise: 50000,
			Qty:            2,
			TotalPaise:     100000,
		}},
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func strptr(s string) *string { return &s }

func TestCreateIntentOpensGatewayOrder(t *testing.T) {
	db := setupPaymentsDB(t)
	gateway := &stubGateway{nextOrderID: "order_rzp_1"}
	svc := newPaymentsService(t, db, gateway)
	ctx := context.Background()

	userID := uuid.New()
	order := seedPendingOrder(t, db, userID, nil)

	intent, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_rzp_1", intent.GatewayOrderID)
	assert.Equal(t, int64(118000), intent.AmountPaise)
	assert.Equal(t, "INR", intent.Currency)
	assert.Equal(t, "rzp_test_key", intent.KeyID)

	require.Len(t, gateway.created, 1)
	assert.Equal(t, order.OrderNumber, gateway.created[0].Receipt)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	require.NotNil(t, stored.GatewayOrderID)
	assert.Equal(t, "order_rzp_1", *stored.GatewayOrderID)
}

func TestCreateIntentReusesExistingGatewayOrder(t *testing.T) {
	db := setupPaymentsDB(t)
	gateway := &stubGateway{nextOrderID: "order_rzp_unused"}
	svc := newPaymentsService(t, db, gateway)
	ctx := context.Background()

	userID := uuid.New()
	order := seedPendingOrder(t, db, userID, strptr("order_rzp_existing"))

	intent, err := svc.CreateIntent(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_rzp_existing", intent.GatewayOrderID)
	assert.Empty(t, gateway.created)
}

func TestCreateIntentOwnershipAndState(t *testing.T) {
	db := setupPaymentsDB(t)
	gateway := &stubGateway{nextOrderID: "order_rzp_1"}
	svc := newPaymentsService(t, db, gateway)
	ctx := context.Background()

	userID := uuid.New()
	order := seedPendingOrder(t, db, userID, nil)

	_, err := svc.CreateIntent(ctx, uuid.New(), order.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.CreateIntent(ctx, userID, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", enums.OrderStatusConfirmed).Error)
	_, err = svc.CreateIntent(ctx, userID, order.ID)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestVerifyPaymentCapturesOrder(t *testing.T) {
	db := setupPaymentsDB(t)
	gateway := &stubGateway{validSig: "good-signature"}
	svc := newPaymentsService(t, db, gateway)
	ctx := context.Background()

	userID := uuid.New()
	order := seedPendingOrder(t, db, userID, strptr("order_rzp_1"))

	applied, err := svc.VerifyPayment(ctx, userID, VerifyInput{
		OrderID:          order.ID,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_abc",
		Signature:        "good-signature",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, applied.Status)
	assert.Equal(t, enums.PaymentStatusCompleted, applied.PaymentStatus)
	require.NotNil(t, applied.ConfirmedAt)

	var inv models.InventoryItem
	require.NoError(t, db.First(&inv, "product_id = ?", order.Items[0].ProductID).Error)
	assert.Equal(t, 8, inv.AvailableQty)
	assert.Equal(t, 0, inv.ReservedQty)

	var events []models.OutboxEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventPaymentCaptured, events[0].EventType)
}

func TestVerifyPaymentRejectsTamperedSignature(t *testing.T) {
	db := setupPaymentsDB(t)
	gateway := &stubGateway{validSig: "good-signature"}
	svc := newPaymentsService(t, db, gateway)
	ctx := context.Background()

	userID := uuid.New()
	order := seedPendingOrder(t, db, userID, strptr("order_rzp_1"))

	_, err := svc.VerifyPayment(ctx, userID, VerifyInput{
		OrderID:          order.ID,
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_abc",
		Signature:        "forged",
	})
	assert.Equal(t, pkgerrors.CodeVerification, pkgerrors.As(err).Code())

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	assert.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
	assert.Nil(t, stored.GatewayPaymentID)

	var inv models.InventoryItem
	require.NoError(t, db.First(&inv, "product_id = ?", order.Items[0].ProductID).Error)
	assert.Equal(t, 8, inv.AvailableQty)
	assert.Equal(t, 2, inv.ReservedQty)
}

func TestApplyPaymentResultFailureReleasesStock(t *testing.T) {
	db := setupPaymentsDB(t)
	svc := newPaymentsService(t, db, &stubGateway{})
	ctx := context.Background()

	order := seedPendingOrder(t, db, uuid.New(), strptr("order_rzp_1"))

	applied, err := svc.ApplyPaymentResult(ctx, ApplyInput{
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_fail",
		Outcome:          enums.PaymentOutcomeFailed,
		Reason:           "card declined",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, applied.Status)
	assert.Equal(t, enums.PaymentStatusFailed, applied.PaymentStatus)
	require.NotNil(t, applied.CancelledAt)

	var inv models.InventoryItem
	require.NoError(t, db.First(&inv, "product_id = ?", order.Items[0].ProductID).Error)
	assert.Equal(t, 10, inv.AvailableQty)
	assert.Equal(t, 0, inv.ReservedQty)

	var events []models.OutboxEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventPaymentFailed, events[0].EventType)
}

func TestApplyPaymentResultReplayIsNoOp(t *testing.T) {
	db := setupPaymentsDB(t)
	svc := newPaymentsService(t, db, &stubGateway{})
	ctx := context.Background()

	order := seedPendingOrder(t, db, uuid.New(), strptr("order_rzp_1"))

	input := ApplyInput{
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_abc",
		Outcome:          enums.PaymentOutcomeCaptured,
	}
	_, err := svc.ApplyPaymentResult(ctx, input)
	require.NoError(t, err)

	applied, err := svc.ApplyPaymentResult(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, applied.Status)

	var inv models.InventoryItem
	require.NoError(t, db.First(&inv, "product_id = ?", order.Items[0].ProductID).Error)
	assert.Equal(t, 8, inv.AvailableQty)
	assert.Equal(t, 0, inv.ReservedQty)

	var events []models.OutboxEvent
	require.NoError(t, db.Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestApplyPaymentResultConflictingPayment(t *testing.T) {
	db := setupPaymentsDB(t)
	svc := newPaymentsService(t, db, &stubGateway{})
	ctx := context.Background()

	seedPendingOrder(t, db, uuid.New(), strptr("order_rzp_1"))

	_, err := svc.ApplyPaymentResult(ctx, ApplyInput{
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_first",
		Outcome:          enums.PaymentOutcomeCaptured,
	})
	require.NoError(t, err)

	_, err = svc.ApplyPaymentResult(ctx, ApplyInput{
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_second",
		Outcome:          enums.PaymentOutcomeCaptured,
	})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestApplyPaymentResultUnknownGatewayOrder(t *testing.T) {
	db := setupPaymentsDB(t)
	svc := newPaymentsService(t, db, &stubGateway{})

	_, err := svc.ApplyPaymentResult(context.Background(), ApplyInput{
		GatewayOrderID:   "order_rzp_missing",
		GatewayPaymentID: "pay_abc",
		Outcome:          enums.PaymentOutcomeCaptured,
	})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
