package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khiels/storefront-backend/pkg/enums"
)

// Payment records the settlement intent for an order. Status moves only
// through the provider callback once the order is placed.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;index;not null"`
	Method      enums.PaymentMethod `gorm:"column:method;not null"`
	Status      enums.PaymentStatus `gorm:"column:status;not null"`
	AmountCents int64               `gorm:"column:amount_cents;not null"`
	PaymentDate time.Time           `gorm:"column:payment_date;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
