package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/khiels/storefront-backend/internal/orders"
	"github.com/khiels/storefront-backend/pkg/enums"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// PaymentEvent is the provider callback after the customer finishes (or
// abandons) the hosted payment page.
type PaymentEvent struct {
	OrderCode string `json:"orderCode" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// PaymentService applies provider callbacks to stored payments.
type PaymentService interface {
	ApplyPaymentEvent(ctx context.Context, event PaymentEvent) error
}

type paymentService struct {
	ordersRepo orders.Repository
	logger     *logger.Logger
}

// NewPaymentService builds the webhook payment processor.
func NewPaymentService(ordersRepo orders.Repository, logg *logger.Logger) (PaymentService, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &paymentService{ordersRepo: ordersRepo, logger: logg}, nil
}

// ApplyPaymentEvent moves the payment to the reported status. Only the
// pending and wait states accept a transition; replays of a terminal
// status are acknowledged without a second write.
func (s *paymentService) ApplyPaymentEvent(ctx context.Context, event PaymentEvent) error {
	if event.OrderCode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order code required")
	}
	next, err := enums.ParsePaymentStatus(event.Status)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment status %q", event.Status))
	}
	if next != enums.PaymentStatusCompleted && next != enums.PaymentStatusFailed {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status %q is not a terminal callback state", event.Status))
	}

	ctx = s.logger.WithOrderCode(ctx, event.OrderCode)

	payment, err := s.ordersRepo.FindPaymentByOrderCode(ctx, event.OrderCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading payment")
	}

	if payment.Status == next {
		s.logger.Info(ctx, "payment callback replayed, no change")
		return nil
	}
	if !payment.Status.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("payment in state %q cannot move to %q", payment.Status, next))
	}

	// Guarded write: a concurrent callback racing past the checks above
	// loses here instead of overwriting a terminal state.
	err = s.ordersRepo.TransitionPaymentStatus(ctx, payment.ID, next,
		enums.PaymentStatusWait, enums.PaymentStatusPending)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("payment already settled, cannot move to %q", next))
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "updating payment status")
	}

	if next == enums.PaymentStatusCompleted {
		if err := s.ordersRepo.UpdateOrderStatus(ctx, payment.OrderID, enums.OrderStatusConfirmed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "updating order status")
		}
	}

	s.logger.Info(ctx, "payment status updated")
	return nil
}
