package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khiels/storefront-backend/pkg/enums"
)

// Order is the order header created once per checkout. OrderCode is the
// external-facing identifier; later payment/fulfillment workflows mutate
// Status but never the monetary snapshot.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode     string            `gorm:"column:order_code;uniqueIndex;not null"`
	UserName      string            `gorm:"column:user_name;not null"`
	Email         string            `gorm:"column:email;not null"`
	Address       string            `gorm:"column:address;not null"`
	PhoneNumber   string            `gorm:"column:phone_number;not null"`
	OrderDate     time.Time         `gorm:"column:order_date;not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	TotalCents    int64             `gorm:"column:total_cents;not null"`
	DiscountCents int64             `gorm:"column:discount_cents;not null;default:0"`
	Details       []OrderDetail     `gorm:"foreignKey:OrderCode;references:OrderCode"`
	Shipping      *Shipping         `gorm:"foreignKey:OrderCode;references:OrderCode"`
	Payment       *Payment          `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
