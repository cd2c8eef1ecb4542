package orders

import (
	"context"
	"time"

	"github.com/khiels/storefront-backend/internal/repo"
	"github.com/khiels/storefront-backend/pkg/db/models"
	"github.com/khiels/storefront-backend/pkg/enums"
	"github.com/khiels/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderDetails(ctx context.Context, details []models.OrderDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&details).Error
}

func (r *repository) CreateShipping(ctx context.Context, shipping *models.Shipping) (*models.Shipping, error) {
	if err := r.DB(ctx).Create(shipping).Error; err != nil {
		return nil, err
	}
	return shipping, nil
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.DB(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByOrderCode(ctx context.Context, orderCode string) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Details").
		Preload("Shipping").
		Preload("Payment").
		Where("order_code = ?", orderCode).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindPaymentByOrderCode(ctx context.Context, orderCode string) (*models.Payment, error) {
	var payment models.Payment
	err := r.DB(ctx).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.order_code = ?", orderCode).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindExpiredPendingOrders returns orders whose hosted-gateway payment is
// still pending past the cutoff, with details preloaded for restocking.
func (r *repository) FindExpiredPendingOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var list []models.Order
	err := r.DB(ctx).
		Preload("Details").
		Preload("Payment").
		Joins("JOIN payments ON payments.order_id = orders.id").
		Where("payments.status = ?", enums.PaymentStatusPending).
		Where("orders.status = ?", enums.OrderStatusPending).
		Where("orders.order_date < ?", cutoff).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// TransitionPaymentStatus moves a payment to the target status only while
// it still holds one of the from statuses. Zero rows affected means the
// payment is missing or another writer already settled it, so concurrent
// callbacks cannot overwrite a terminal state.
func (r *repository) TransitionPaymentStatus(ctx context.Context, paymentID uuid.UUID, to enums.PaymentStatus, from ...enums.PaymentStatus) error {
	res := r.DB(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status IN ?", paymentID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListByUserName(ctx context.Context, userName string) ([]models.Order, error) {
	var list []models.Order
	err := r.DB(ctx).
		Preload("Details").
		Where("user_name = ?", userName).
		Order("order_date DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListPageByUserName returns one cursor page of a customer's orders, newest
// first, plus the cursor for the next page ("" when exhausted).
func (r *repository) ListPageByUserName(ctx context.Context, userName string, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.DB(ctx).
		Preload("Details").
		Preload("Payment").
		Where("user_name = ?", userName)
	if cursor != nil {
		query = query.Where("(order_date, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var list []models.Order
	err = query.
		Order("order_date DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(list) == limit {
		list = list[:limit-1]
		last := list[len(list)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.OrderDate, ID: last.ID})
	}
	return list, next, nil
}
