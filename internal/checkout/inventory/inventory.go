package inventory

import (
	"context"
	"fmt"

	"github.com/khiels/storefront-backend/pkg/db/models"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeductionRequest asks for stock to be taken from one variant.
type DeductionRequest struct {
	ProductID uuid.UUID
	Size      string
	Qty       int64
}

// DeductionResult reports the outcome for one request. VariantID is set
// whenever a matching variant row was found, deducted or not.
type DeductionResult struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Deducted  bool
	Reason    string
}

// RestockRequest returns previously deducted stock to one variant.
type RestockRequest struct {
	VariantID uuid.UUID
	Qty       int64
}

// DeductStock decrements stock for each request inside the caller's
// transaction. The decrement is guarded so two concurrent checkouts can
// never drive a variant negative: the UPDATE only fires when enough
// quantity remains, and zero rows affected means the stock moved under us.
// Callers must treat any non-deducted result as grounds for rollback.
func DeductStock(ctx context.Context, tx *gorm.DB, requests []DeductionRequest) ([]DeductionResult, error) {
	results := make([]DeductionResult, 0, len(requests))

	for _, req := range requests {
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity %d for product %s", req.Qty, req.ProductID))
		}

		var variant models.ProductVariant
		err := tx.WithContext(ctx).
			Where("product_id = ? AND size = ?", req.ProductID, req.Size).
			First(&variant).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				results = append(results, DeductionResult{
					ProductID: req.ProductID,
					Reason:    "variant not found",
				})
				continue
			}
			return nil, err
		}

		res := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ? AND quantity >= ?", variant.ID, req.Qty).
			Updates(map[string]any{
				"quantity": gorm.Expr("quantity - ?", req.Qty),
				"sold":     gorm.Expr("sold + ?", req.Qty),
			})
		if res.Error != nil {
			return nil, res.Error
		}

		variantID := variant.ID
		if res.RowsAffected == 0 {
			results = append(results, DeductionResult{
				ProductID: req.ProductID,
				VariantID: &variantID,
				Reason:    "insufficient stock",
			})
			continue
		}

		results = append(results, DeductionResult{
			ProductID: req.ProductID,
			VariantID: &variantID,
			Deducted:  true,
		})
	}

	return results, nil
}

// RestockStock reverses earlier deductions inside the caller's
// transaction, typically when a pending payment expires. Sold is guarded
// the same way quantity is on the way down so a double restock cannot
// push it negative.
func RestockStock(ctx context.Context, tx *gorm.DB, requests []RestockRequest) error {
	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid restock quantity %d for variant %s", req.Qty, req.VariantID))
		}

		res := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ? AND sold >= ?", req.VariantID, req.Qty).
			Updates(map[string]any{
				"quantity": gorm.Expr("quantity + ?", req.Qty),
				"sold":     gorm.Expr("sold - ?", req.Qty),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("variant %s cannot absorb restock of %d", req.VariantID, req.Qty))
		}
	}
	return nil
}
