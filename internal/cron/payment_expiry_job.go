package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/khiels/storefront-backend/internal/checkout/inventory"
	"github.com/khiels/storefront-backend/internal/orders"
	"github.com/khiels/storefront-backend/pkg/db/models"
	"github.com/khiels/storefront-backend/pkg/enums"
	"github.com/khiels/storefront-backend/pkg/logger"
)

const defaultPendingPaymentTTL = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentExpiryJobParams configure the stale payment sweeper.
type PaymentExpiryJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Orders orders.Repository
	TTL    time.Duration
}

// NewPaymentExpiryJob builds the job that fails hosted-gateway payments
// the customer abandoned, cancels their orders, and returns the stock.
func NewPaymentExpiryJob(params PaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingPaymentTTL
	}
	return &paymentExpiryJob{
		logg:   params.Logger,
		db:     params.DB,
		orders: params.Orders,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type paymentExpiryJob struct {
	logg   *logger.Logger
	db     txRunner
	orders orders.Repository
	ttl    time.Duration
	now    func() time.Time
}

func (j *paymentExpiryJob) Name() string { return "payment-expiry" }

func (j *paymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.orders.FindExpiredPendingOrders(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query expired pending orders: %w", err)
	}

	var errs []error
	expired := 0
	for _, order := range stale {
		if err := j.expireOrder(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.OrderCode, err))
			continue
		}
		expired++
	}

	if expired > 0 {
		runCtx := j.logg.WithField(ctx, "expired_orders", expired)
		j.logg.Info(runCtx, "expired abandoned hosted-gateway orders")
	}
	return multierr.Combine(errs...)
}

// expireOrder flips the payment to failed, cancels the order, and restocks
// its variants in one transaction so a crash mid-sweep leaves the order
// untouched and retryable on the next cycle.
func (j *paymentExpiryJob) expireOrder(ctx context.Context, order models.Order) error {
	if order.Payment == nil {
		return fmt.Errorf("order %s has no payment record", order.OrderCode)
	}
	restocks := restockRequests(order.Details)

	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := j.orders.WithTx(tx)
		// Guarded on pending so a callback completing the payment between
		// the sweep query and this write aborts the expiry instead.
		if err := txRepo.TransitionPaymentStatus(ctx, order.Payment.ID,
			enums.PaymentStatusFailed, enums.PaymentStatusPending); err != nil {
			return fmt.Errorf("fail payment: %w", err)
		}
		if err := txRepo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if err := inventory.RestockStock(ctx, tx, restocks); err != nil {
			return fmt.Errorf("restock: %w", err)
		}
		return nil
	})
}

func restockRequests(details []models.OrderDetail) []inventory.RestockRequest {
	requests := make([]inventory.RestockRequest, 0, len(details))
	for _, detail := range details {
		if detail.VariantID == nil {
			continue
		}
		requests = append(requests, inventory.RestockRequest{
			VariantID: *detail.VariantID,
			Qty:       detail.Quantity,
		})
	}
	return requests
}
