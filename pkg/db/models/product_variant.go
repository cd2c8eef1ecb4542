package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant tracks stock for one purchasable SKU combination. The
// quantity/sold counters are mutated concurrently by every checkout that
// includes the variant; writes must go through the guarded decrement in
// internal/checkout/inventory.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;index;not null"`
	Size      string    `gorm:"column:size"`
	Quantity  int64     `gorm:"column:quantity;not null;default:0"`
	Sold      int64     `gorm:"column:sold;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
