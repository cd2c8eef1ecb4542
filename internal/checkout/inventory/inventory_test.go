package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/khiels/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.ProductVariant{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, size string, qty int64) uuid.UUID {
	t.Helper()

	variant := models.ProductVariant{
		ID:        uuid.New(),
		ProductID: productID,
		Size:      size,
		Quantity:  qty,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func TestDeductStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := uuid.New()
	productB := uuid.New()
	seedVariant(t, db, productA, "M", 5)
	seedVariant(t, db, productB, "L", 1)

	requests := []DeductionRequest{
		{ProductID: productA, Size: "M", Qty: 3},
		{ProductID: productA, Size: "M", Qty: 4},
		{ProductID: productB, Size: "L", Qty: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := DeductStock(ctx, tx, requests)
		if terr != nil {
			return terr
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if !results[0].Deducted || results[0].Reason != "" {
			t.Fatalf("expected first deduction to succeed: %+v", results[0])
		}
		if results[1].Deducted || results[1].Reason != "insufficient stock" {
			t.Fatalf("expected second deduction to fail on stock: %+v", results[1])
		}
		if !results[2].Deducted {
			t.Fatalf("expected third deduction to succeed: %+v", results[2])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("deduct transaction: %v", err)
	}

	var variantA, variantB models.ProductVariant
	if err := db.First(&variantA, "product_id = ?", productA).Error; err != nil {
		t.Fatalf("load variant a: %v", err)
	}
	if err := db.First(&variantB, "product_id = ?", productB).Error; err != nil {
		t.Fatalf("load variant b: %v", err)
	}
	if variantA.Quantity != 2 || variantA.Sold != 3 {
		t.Fatalf("unexpected variant a state: %+v", variantA)
	}
	if variantB.Quantity != 0 || variantB.Sold != 1 {
		t.Fatalf("unexpected variant b state: %+v", variantB)
	}
}

func TestDeductStockVariantNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedVariant(t, db, product, "M", 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := DeductStock(ctx, tx, []DeductionRequest{
			{ProductID: product, Size: "XXL", Qty: 1},
		})
		if terr != nil {
			return terr
		}
		if results[0].Deducted || results[0].Reason != "variant not found" {
			t.Fatalf("expected missing-variant result: %+v", results[0])
		}
		if results[0].VariantID != nil {
			t.Fatalf("expected nil variant id for missing variant")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("deduct transaction: %v", err)
	}
}

func TestDeductStockInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := DeductStock(ctx, tx, []DeductionRequest{
			{ProductID: uuid.New(), Size: "M", Qty: 0},
		})
		return terr
	})
	if err == nil {
		t.Fatal("expected error for non-positive quantity")
	}
}

func TestDeductStockNeverGoesNegative(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedVariant(t, db, product, "S", 2)

	// two sequential transactions contending for the same two units
	for i, wantDeducted := range []bool{true, false} {
		err := db.Transaction(func(tx *gorm.DB) error {
			results, terr := DeductStock(ctx, tx, []DeductionRequest{
				{ProductID: product, Size: "S", Qty: 2},
			})
			if terr != nil {
				return terr
			}
			if results[0].Deducted != wantDeducted {
				t.Fatalf("pass %d: deducted = %v, want %v", i, results[0].Deducted, wantDeducted)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	var variant models.ProductVariant
	if err := db.First(&variant, "product_id = ?", product).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 0 {
		t.Fatalf("quantity = %d, want 0", variant.Quantity)
	}
}

func TestRestockStockReversesDeduction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productID := uuid.New()
	variantID := seedVariant(t, db, productID, "M", 5)

	results, err := DeductStock(ctx, db, []DeductionRequest{{ProductID: productID, Size: "M", Qty: 3}})
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if !results[0].Deducted {
		t.Fatalf("expected deduction, got %+v", results[0])
	}

	if err := RestockStock(ctx, db, []RestockRequest{{VariantID: variantID, Qty: 3}}); err != nil {
		t.Fatalf("restock: %v", err)
	}

	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 5 || variant.Sold != 0 {
		t.Fatalf("quantity/sold = %d/%d, want 5/0", variant.Quantity, variant.Sold)
	}
}

func TestRestockStockGuardsSold(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, db, uuid.New(), "L", 5)

	// nothing sold yet, restock must refuse rather than drive sold negative
	if err := RestockStock(ctx, db, []RestockRequest{{VariantID: variantID, Qty: 1}}); err == nil {
		t.Fatal("expected restock to fail when sold is zero")
	}

	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 5 || variant.Sold != 0 {
		t.Fatalf("variant mutated: quantity/sold = %d/%d", variant.Quantity, variant.Sold)
	}
}

func TestRestockStockInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := RestockStock(context.Background(), db, []RestockRequest{{VariantID: uuid.New(), Qty: 0}}); err == nil {
		t.Fatal("expected error for non-positive quantity")
	}
}

func TestDeductStockConcurrentContention(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	// sqlite cannot interleave writers; a single connection serializes
	// statements while the goroutines still race to issue them
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	productID := uuid.New()
	variantID := seedVariant(t, db, productID, "M", 3)

	const buyers = 8
	var wg sync.WaitGroup
	outcomes := make(chan bool, buyers)
	failures := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := DeductStock(context.Background(), db, []DeductionRequest{
				{ProductID: productID, Size: "M", Qty: 1},
			})
			if err != nil {
				failures <- err
				return
			}
			outcomes <- results[0].Deducted
		}()
	}
	wg.Wait()
	close(outcomes)
	close(failures)

	for err := range failures {
		t.Fatalf("deduct: %v", err)
	}

	deducted := 0
	for ok := range outcomes {
		if ok {
			deducted++
		}
	}
	if deducted != 3 {
		t.Fatalf("deducted %d units, want exactly 3", deducted)
	}

	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Quantity != 0 || variant.Sold != 3 {
		t.Fatalf("quantity/sold = %d/%d, want 0/3", variant.Quantity, variant.Sold)
	}
}
