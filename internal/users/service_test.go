package users

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

func setupUsersDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  external_id TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL,
  name TEXT NOT NULL,
  avatar_url TEXT,
  role TEXT NOT NULL DEFAULT 'buyer',
  phone TEXT,
  address TEXT,
  city TEXT,
  postal_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
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
		`CREATE TABLE IF NOT EXISTS wishlist_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, product_id)
);`,
		`CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT,
  created_at DATETIME,
  UNIQUE (product_id, user_id)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newUsersService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Logger: logger.New(logger.Options{ServiceName: "users-test"}),
	})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		ID:         uuid.New(),
		ExternalID: "ext_" + uuid.NewString()[:8],
		Email:      "asha@example.com",
		Name:       "Asha Patel",
		Role:       enums.RoleBuyer,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedUserOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus, totalPaise int64) {
	t.Helper()
	order := models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-TEST-" + uuid.NewString()[:8],
		UserID:        userID,
		Status:        status,
		PaymentStatus: enums.PaymentStatusPending,
		SubtotalPaise: totalPaise,
		TotalPaise:    totalPaise,
	}
	require.NoError(t, db.Create(&order).Error)
}

func TestGetProfile(t *testing.T) {
	db := setupUsersDB(t)
	svc := newUsersService(t, db)
	ctx := context.Background()

	user := seedUser(t, db)

	got, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Patel", got.Name)

	_, err = svc.GetProfile(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateProfile(t *testing.T) {
	db := setupUsersDB(t)
	svc := newUsersService(t, db)
	ctx := context.Background()

	user := seedUser(t, db)

	name := "Asha P"
	city := "Pune"
	got, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name, City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Asha P", got.Name)
	require.NotNil(t, got.City)
	assert.Equal(t, "Pune", *got.City)
	assert.Equal(t, user.Email, got.Email)

	empty := "  "
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &empty})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGetDashboard(t *testing.T) {
	db := setupUsersDB(t)
	svc := newUsersService(t, db)
	ctx := context.Background()

	user := seedUser(t, db)
	seedUserOrder(t, db, user.ID, enums.OrderStatusConfirmed, 118000)
	seedUserOrder(t, db, user.ID, enums.OrderStatusPending, 52200)
	seedUserOrder(t, db, user.ID, enums.OrderStatusCancelled, 99999)
	seedUserOrder(t, db, uuid.New(), enums.OrderStatusConfirmed, 500000)

	require.NoError(t, db.Create(&models.WishlistItem{
		ID:        uuid.New(),
		UserID:    user.ID,
		ProductID: uuid.New(),
	}).Error)
	require.NoError(t, db.Create(&models.Review{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		UserID:    user.ID,
		Rating:    4,
	}).Error)

	summary, err := svc.GetDashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalOrders)
	assert.Equal(t, int64(1), summary.PendingOrders)
	assert.Equal(t, int64(1), summary.ConfirmedOrders)
	assert.Equal(t, int64(1), summary.CancelledOrders)
	// Only confirmed orders count toward spend.
	assert.Equal(t, int64(118000), summary.TotalSpentPaise)
	assert.Equal(t, int64(1), summary.WishlistCount)
	assert.Equal(t, int64(1), summary.ReviewCount)
	assert.Len(t, summary.RecentOrders, 3)
}
