package orders

import (
	"context"
	"time"

	"github.com/khiels/storefront-backend/pkg/db/models"
	"github.com/khiels/storefront-backend/pkg/enums"
	"github.com/khiels/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderDetails(ctx context.Context, details []models.OrderDetail) error
	CreateShipping(ctx context.Context, shipping *models.Shipping) (*models.Shipping, error)
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByOrderCode(ctx context.Context, orderCode string) (*models.Order, error)
	FindPaymentByOrderCode(ctx context.Context, orderCode string) (*models.Payment, error)
	FindExpiredPendingOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	TransitionPaymentStatus(ctx context.Context, paymentID uuid.UUID, to enums.PaymentStatus, from ...enums.PaymentStatus) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	ListByUserName(ctx context.Context, userName string) ([]models.Order, error)
	ListPageByUserName(ctx context.Context, userName string, params pagination.Params) ([]models.Order, string, error)
}
