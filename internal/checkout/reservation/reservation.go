package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopkartlabs/shopkart-backend/pkg/db/models"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
)

// InventoryReservationRequest asks to move qty units from available to
// reserved for one cart line.
type InventoryReservationRequest struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
}

// InventoryReservationResult reports the per-request outcome. A request that
// could not be satisfied carries a human-readable Reason.
type InventoryReservationResult struct {
	CartItemID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
	Reserved   bool
	Reason     string
}

// ReserveInventory attempts each reservation in order inside the caller's
// transaction. Stock is moved with a guarded update so two concurrent
// checkouts can never both take the last unit. Insufficient stock is not an
// error; it is reported per-request so the caller can fail the whole checkout
// with a useful message.
func ReserveInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReservationRequest) ([]InventoryReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("reservation qty must be positive for product %s", req.ProductID))
		}
	}

	results := make([]InventoryReservationResult, 0, len(requests))
	for _, req := range requests {
		result := InventoryReservationResult{
			CartItemID: req.CartItemID,
			ProductID:  req.ProductID,
			Qty:        req.Qty,
		}

		update := tx.WithContext(ctx).Model(&models.InventoryItem{}).
			Where("product_id = ? AND available_qty >= ?", req.ProductID, req.Qty).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty - ?", req.Qty),
				"reserved_qty":  gorm.Expr("reserved_qty + ?", req.Qty),
			})
		if update.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, update.Error, "reserve inventory")
		}

		if update.RowsAffected == 0 {
			var item models.InventoryItem
			err := tx.WithContext(ctx).First(&item, "product_id = ?", req.ProductID).Error
			switch {
			case err == gorm.ErrRecordNotFound:
				result.Reason = "product has no inventory record"
			case err != nil:
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory")
			default:
				result.Reason = fmt.Sprintf("insufficient stock: requested %d, available %d", req.Qty, item.AvailableQty)
			}
			results = append(results, result)
			continue
		}

		result.Reserved = true
		results = append(results, result)
	}
	return results, nil
}

// ReleaseInventory returns reserved units to available stock. Used when an
// order is cancelled or its payment fails.
func ReleaseInventory(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release qty must be positive")
	}
	update := tx.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_id = ? AND reserved_qty >= ?", productID, qty).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty + ?", qty),
			"reserved_qty":  gorm.Expr("reserved_qty - ?", qty),
		})
	if update.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, update.Error, "release inventory")
	}
	if update.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot release %d units for product %s", qty, productID))
	}
	return nil
}

// CommitInventory burns reserved units after a captured payment. The stock is
// gone for good; available_qty is untouched.
func CommitInventory(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "commit qty must be positive")
	}
	update := tx.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_id = ? AND reserved_qty >= ?", productID, qty).
		Updates(map[string]any{
			"reserved_qty": gorm.Expr("reserved_qty - ?", qty),
		})
	if update.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, update.Error, "commit inventory")
	}
	if update.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot commit %d units for product %s", qty, productID))
	}
	return nil
}
