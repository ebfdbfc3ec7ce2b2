package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolationWithoutConstraint(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "reviews_product_id_user_id_key"}

	require.True(t, IsUniqueViolation(pgxErr))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert review: %w", pgxErr)))
	require.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: wishlist_items.user_id, wishlist_items.product_id")))
	require.True(t, IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "users_external_id_key"`)))

	require.False(t, IsUniqueViolation(nil))
	require.False(t, IsUniqueViolation(errors.New("connection refused")))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestIsUniqueViolationMatchesConstraintName(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
	pqErr := &pq.Error{Code: "23505", Constraint: "carts_user_id_key"}

	require.True(t, IsUniqueViolation(pgxErr, "orders_order_number_key"))
	require.False(t, IsUniqueViolation(pgxErr, "carts_user_id_key"))
	require.True(t, IsUniqueViolation(pqErr, "carts_user_id_key"))
	require.False(t, IsUniqueViolation(pqErr, "orders_order_number_key"))

	// sqlite surfaces only message text, so constraint matching falls back
	// to a substring check.
	require.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: orders.order_number"), "orders.order_number"))
}
