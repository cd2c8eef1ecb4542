package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderDetail snapshots one cart line at order time, decoupled from live
// product data. Immutable after creation.
type OrderDetail struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode   string     `gorm:"column:order_code;index;not null"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID   *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	ProductName string     `gorm:"column:product_name;not null"`
	PriceCents  int64      `gorm:"column:price_cents;not null"`
	Quantity    int64      `gorm:"column:quantity;not null"`
	Size        string     `gorm:"column:size"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (d *OrderDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
