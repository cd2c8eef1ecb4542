package webhooks

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/khiels/storefront-backend/internal/orders"
	"github.com/khiels/storefront-backend/pkg/db/models"
	"github.com/khiels/storefront-backend/pkg/enums"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: zerolog.Disabled})
}

func newWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedHostedOrder(t *testing.T, repo orders.Repository, orderCode string, status enums.PaymentStatus) *models.Payment {
	t.Helper()
	ctx := context.Background()

	order, err := repo.CreateOrder(ctx, &models.Order{
		OrderCode:   orderCode,
		UserName:    "minh",
		Email:       "minh@example.com",
		Address:     "12 Hang Bac, Ha Noi",
		PhoneNumber: "0901234567",
		OrderDate:   time.Now().UTC(),
		Status:      enums.OrderStatusPending,
		TotalCents:  50000,
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	payment, err := repo.CreatePayment(ctx, &models.Payment{
		OrderID:     order.ID,
		Method:      enums.PaymentMethodHostedGateway,
		Status:      status,
		AmountCents: 50000,
		PaymentDate: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}

func TestApplyPaymentEventCompletes(t *testing.T) {
	t.Parallel()

	db := newWebhookTestDB(t)
	repo := orders.NewRepository(db)
	svc, err := NewPaymentService(repo, quietLogger())
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}
	ctx := context.Background()

	seedHostedOrder(t, repo, "order-1", enums.PaymentStatusPending)

	if err := svc.ApplyPaymentEvent(ctx, PaymentEvent{OrderCode: "order-1", Status: "completed"}); err != nil {
		t.Fatalf("ApplyPaymentEvent: %v", err)
	}

	payment, err := repo.FindPaymentByOrderCode(ctx, "order-1")
	if err != nil {
		t.Fatalf("FindPaymentByOrderCode: %v", err)
	}
	if payment.Status != enums.PaymentStatusCompleted {
		t.Fatalf("payment status = %s, want completed", payment.Status)
	}

	order, err := repo.FindByOrderCode(ctx, "order-1")
	if err != nil {
		t.Fatalf("FindByOrderCode: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("order status = %s, want confirmed", order.Status)
	}
}

func TestApplyPaymentEventFails(t *testing.T) {
	t.Parallel()

	db := newWebhookTestDB(t)
	repo := orders.NewRepository(db)
	svc, _ := NewPaymentService(repo, quietLogger())
	ctx := context.Background()

	seedHostedOrder(t, repo, "order-2", enums.PaymentStatusPending)

	if err := svc.ApplyPaymentEvent(ctx, PaymentEvent{OrderCode: "order-2", Status: "failed"}); err != nil {
		t.Fatalf("ApplyPaymentEvent: %v", err)
	}

	payment, _ := repo.FindPaymentByOrderCode(ctx, "order-2")
	if payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want failed", payment.Status)
	}

	order, _ := repo.FindByOrderCode(ctx, "order-2")
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("order status = %s, want pending after failed payment", order.Status)
	}
}

func TestApplyPaymentEventReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newWebhookTestDB(t)
	repo := orders.NewRepository(db)
	svc, _ := NewPaymentService(repo, quietLogger())
	ctx := context.Background()

	seedHostedOrder(t, repo, "order-3", enums.PaymentStatusCompleted)

	if err := svc.ApplyPaymentEvent(ctx, PaymentEvent{OrderCode: "order-3", Status: "completed"}); err != nil {
		t.Fatalf("replay should be acknowledged: %v", err)
	}
}

func TestApplyPaymentEventInvalidTransition(t *testing.T) {
	t.Parallel()

	db := newWebhookTestDB(t)
	repo := orders.NewRepository(db)
	svc, _ := NewPaymentService(repo, quietLogger())
	ctx := context.Background()

	seedHostedOrder(t, repo, "order-4", enums.PaymentStatusFailed)

	err := svc.ApplyPaymentEvent(ctx, PaymentEvent{OrderCode: "order-4", Status: "completed"})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestApplyPaymentEventValidation(t *testing.T) {
	t.Parallel()

	svc, _ := NewPaymentService(orders.NewRepository(newWebhookTestDB(t)), quietLogger())
	ctx := context.Background()

	cases := []PaymentEvent{
		{OrderCode: "", Status: "completed"},
		{OrderCode: "order-5", Status: "nonsense"},
		{OrderCode: "order-5", Status: "pending"},
	}
	for _, event := range cases {
		err := svc.ApplyPaymentEvent(ctx, event)
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("event %+v: expected validation error, got %v", event, err)
		}
	}
}

func TestApplyPaymentEventUnknownOrder(t *testing.T) {
	t.Parallel()

	svc, _ := NewPaymentService(orders.NewRepository(newWebhookTestDB(t)), quietLogger())

	err := svc.ApplyPaymentEvent(context.Background(), PaymentEvent{OrderCode: "missing", Status: "completed"})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

// staleReadRepo reports the payment as it looked before a concurrent
// writer settled it, forcing the guarded update to resolve the race.
type staleReadRepo struct {
	orders.Repository

	stale *models.Payment
}

func (r *staleReadRepo) FindPaymentByOrderCode(ctx context.Context, orderCode string) (*models.Payment, error) {
	return r.stale, nil
}

func TestApplyPaymentEventConcurrentCallbackLosesGuardedWrite(t *testing.T) {
	t.Parallel()

	db := newWebhookTestDB(t)
	repo := orders.NewRepository(db)
	ctx := context.Background()

	payment := seedHostedOrder(t, repo, "order-race", enums.PaymentStatusCompleted)

	// the loser read the payment while it was still pending
	staleCopy := *payment
	staleCopy.Status = enums.PaymentStatusPending
	svc, err := NewPaymentService(&staleReadRepo{Repository: repo, stale: &staleCopy}, quietLogger())
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}

	err = svc.ApplyPaymentEvent(ctx, PaymentEvent{OrderCode: "order-race", Status: "failed"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	found, err := repo.FindPaymentByOrderCode(ctx, "order-race")
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if found.Status != enums.PaymentStatusCompleted {
		t.Fatalf("payment status = %s, want completed untouched", found.Status)
	}
}
