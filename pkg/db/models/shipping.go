package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shipping holds the delivery address for one order. Created once,
// immutable.
type Shipping struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode   string    `gorm:"column:order_code;uniqueIndex;not null"`
	FirstName   string    `gorm:"column:first_name;not null"`
	LastName    string    `gorm:"column:last_name;not null"`
	PhoneNumber string    `gorm:"column:phone_number;not null"`
	AddressLine string    `gorm:"column:address_line;not null"`
	City        string    `gorm:"column:city;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *Shipping) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
