package cart

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
)

func setupCartDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  brand TEXT NOT NULL,
  tags TEXT,
  images TEXT,
  price_paise INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  rating REAL NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_paise INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Logger: logger.New(logger.Options{ServiceName: "cart-test"}),
	})
	require.NoError(t, err)
	return svc
}

func seedCartProduct(t *testing.T, db *gorm.DB, price int64, status enums.ProductStatus) models.Product {
	t.Helper()
	product := models.Product{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		Title:       "Cart Product",
		Description: "some product",
		Category:    "misc",
		Brand:       "Acme",
		PricePaise:  price,
		Status:      status,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestGetCartCreatesOnFirstTouch(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)

	userID := uuid.New()
	view, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, view.CartID)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.SubtotalPaise)

	again, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, view.CartID, again.CartID)
}

func TestAddItemMergesQuantities(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	product := seedCartProduct(t, db, 25000, enums.ProductStatusActive)
	userID := uuid.New()

	view, err := svc.AddItem(ctx, userID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Qty)
	assert.Equal(t, int64(50000), view.SubtotalPaise)

	view, err = svc.AddItem(ctx, userID, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Qty)
	assert.Equal(t, int64(125000), view.SubtotalPaise)
	assert.Equal(t, 5, view.ItemCount)
	assert.Equal(t, "Cart Product", view.Items[0].Title)
}

func TestAddItemRejectsUnavailableProduct(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	archived := seedCartProduct(t, db, 1000, enums.ProductStatusArchived)
	userID := uuid.New()

	_, err := svc.AddItem(ctx, userID, archived.ID, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.AddItem(ctx, userID, uuid.New(), 1)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.AddItem(ctx, userID, archived.ID, 0)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateAndRemoveItem(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	product := seedCartProduct(t, db, 10000, enums.ProductStatusActive)
	userID := uuid.New()

	view, err := svc.AddItem(ctx, userID, product.ID, 1)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	view, err = svc.UpdateItem(ctx, userID, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Qty)
	assert.Equal(t, int64(40000), view.SubtotalPaise)

	// another user cannot touch this line
	_, err = svc.UpdateItem(ctx, uuid.New(), itemID, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	view, err = svc.RemoveItem(ctx, userID, itemID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.SubtotalPaise)

	_, err = svc.RemoveItem(ctx, userID, itemID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestClearCart(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	first := seedCartProduct(t, db, 1000, enums.ProductStatusActive)
	second := seedCartProduct(t, db, 2000, enums.ProductStatusActive)
	userID := uuid.New()

	_, err := svc.AddItem(ctx, userID, first.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, second.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, userID))

	view, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartRequiresIdentity(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)

	_, err := svc.GetCart(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}
