package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/khiels/storefront-backend/internal/cart"
	"github.com/khiels/storefront-backend/internal/checkout/inventory"
	"github.com/khiels/storefront-backend/internal/email"
	"github.com/khiels/storefront-backend/internal/orders"
	"github.com/khiels/storefront-backend/pkg/db/models"
	"github.com/khiels/storefront-backend/pkg/enums"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
	"github.com/khiels/storefront-backend/pkg/metrics"
	"github.com/khiels/storefront-backend/pkg/payos"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationMessage is surfaced verbatim to the storefront on any
// malformed checkout submission.
const ValidationMessage = "Dữ liệu không hợp lệ."

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentLinker interface {
	CreatePaymentLink(ctx context.Context, req payos.PaymentLinkRequest) (*payos.PaymentLink, error)
}

type confirmationMailer interface {
	SendOrderConfirmation(ctx context.Context, input email.ConfirmationInput) error
}

type stockDeductor interface {
	Deduct(ctx context.Context, tx *gorm.DB, requests []inventory.DeductionRequest) ([]inventory.DeductionResult, error)
}

type deductionEngine struct{}

func (deductionEngine) Deduct(ctx context.Context, tx *gorm.DB, requests []inventory.DeductionRequest) ([]inventory.DeductionResult, error) {
	return inventory.DeductStock(ctx, tx, requests)
}

// Customer is the authenticated identity placing the order.
type Customer struct {
	UserName string
	Email    string
}

// PlaceOrderInput carries the submitted shipping form and payment choice.
type PlaceOrderInput struct {
	FirstName     string
	LastName      string
	PhoneNumber   string
	AddressLine   string
	City          string
	PaymentMethod string
}

// OrderResult is returned on a successfully placed order. RedirectURL is
// set only for hosted-gateway payments.
type OrderResult struct {
	OrderID     uuid.UUID
	OrderCode   string
	TotalCents  int64
	RedirectURL string
}

// Service executes order placement.
type Service interface {
	PlaceOrder(ctx context.Context, customer Customer, input PlaceOrderInput) (*OrderResult, error)
}

type service struct {
	tx         txRunner
	cartStore  cart.Store
	ordersRepo orders.Repository
	gateway    paymentLinker
	mailer     confirmationMailer
	deductor   stockDeductor
	metrics    *metrics.CheckoutMetrics
	logger     *logger.Logger
	returnURL  string
	cancelURL  string
}

// NewService builds the order placement service.
func NewService(
	tx txRunner,
	cartStore cart.Store,
	ordersRepo orders.Repository,
	gateway paymentLinker,
	mailer confirmationMailer,
	deductor stockDeductor,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
	returnURL, cancelURL string,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartStore == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("confirmation mailer required")
	}
	if deductor == nil {
		deductor = deductionEngine{}
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         tx,
		cartStore:  cartStore,
		ordersRepo: ordersRepo,
		gateway:    gateway,
		mailer:     mailer,
		deductor:   deductor,
		metrics:    checkoutMetrics,
		logger:     logg,
		returnURL:  returnURL,
		cancelURL:  cancelURL,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, customer Customer, input PlaceOrderInput) (*OrderResult, error) {
	started := time.Now()

	if customer.UserName == "" || customer.Email == "" {
		s.metrics.IncFailed("unauthenticated")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	method, err := validateInput(input)
	if err != nil {
		s.metrics.IncFailed("validation")
		return nil, err
	}

	items, err := s.cartStore.Items(ctx, customer.UserName)
	if err != nil {
		s.metrics.IncFailed("dependency")
		return nil, err
	}
	if len(items) == 0 {
		s.metrics.IncFailed("validation")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, ValidationMessage)
	}

	discountCents, err := s.cartStore.DiscountCents(ctx, customer.UserName)
	if err != nil {
		s.metrics.IncFailed("dependency")
		return nil, err
	}

	var subtotalCents int64
	for _, item := range items {
		subtotalCents += item.SubtotalCents()
	}
	totalCents := subtotalCents - discountCents
	if totalCents < 0 {
		totalCents = 0
	}

	// The provider rejects zero-amount payment links, so a fully
	// discounted cart can only be placed as cash.
	if totalCents == 0 && method == enums.PaymentMethodHostedGateway {
		s.metrics.IncFailed("validation")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, ValidationMessage)
	}

	orderCode := uuid.New().String()
	ctx = s.logger.WithOrderCode(ctx, orderCode)

	result := &OrderResult{OrderCode: orderCode, TotalCents: totalCents}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		if _, err := repo.CreateShipping(ctx, &models.Shipping{
			OrderCode:   orderCode,
			FirstName:   input.FirstName,
			LastName:    input.LastName,
			PhoneNumber: input.PhoneNumber,
			AddressLine: input.AddressLine,
			City:        input.City,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "saving shipping")
		}

		order, err := repo.CreateOrder(ctx, &models.Order{
			OrderCode:     orderCode,
			UserName:      customer.UserName,
			Email:         customer.Email,
			Address:       input.AddressLine + ", " + input.City,
			PhoneNumber:   input.PhoneNumber,
			OrderDate:     time.Now().UTC(),
			Status:        enums.OrderStatusPending,
			TotalCents:    totalCents,
			DiscountCents: discountCents,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "saving order")
		}
		result.OrderID = order.ID

		requests := make([]inventory.DeductionRequest, len(items))
		for i, item := range items {
			requests[i] = inventory.DeductionRequest{
				ProductID: item.ProductID,
				Size:      item.Size,
				Qty:       item.Quantity,
			}
		}
		deductions, err := s.deductor.Deduct(ctx, tx, requests)
		if err != nil {
			return err
		}

		details := make([]models.OrderDetail, len(items))
		for i, item := range items {
			deduction := deductions[i]
			if !deduction.Deducted {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("product %s (%s): %s", item.ProductName, item.Size, deduction.Reason))
			}
			details[i] = models.OrderDetail{
				OrderCode:   orderCode,
				ProductID:   item.ProductID,
				VariantID:   deduction.VariantID,
				ProductName: item.ProductName,
				PriceCents:  item.PriceCents,
				Quantity:    item.Quantity,
				Size:        item.Size,
			}
		}
		if err := repo.CreateOrderDetails(ctx, details); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "saving order details")
		}

		payment := &models.Payment{
			OrderID:     order.ID,
			Method:      method,
			AmountCents: totalCents,
			PaymentDate: time.Now().UTC(),
		}

		switch method {
		case enums.PaymentMethodCash:
			payment.Status = enums.PaymentStatusWait
		case enums.PaymentMethodHostedGateway:
			// the provider call sits inside the transaction window so a
			// gateway failure rolls back the whole order
			link, err := s.createPaymentLink(ctx, orderCode, totalCents, items)
			if err != nil {
				return err
			}
			payment.Status = enums.PaymentStatusPending
			result.RedirectURL = link.CheckoutURL
		}

		if _, err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "saving payment")
		}
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	s.afterCommit(ctx, customer, result)

	s.metrics.IncPlaced(method.String())
	s.metrics.ObserveDuration(method.String(), time.Since(started))
	return result, nil
}

// afterCommit runs the best-effort side effects. The order is already
// durable; nothing here may fail the checkout.
func (s *service) afterCommit(ctx context.Context, customer Customer, result *OrderResult) {
	if err := s.cartStore.Clear(ctx, customer.UserName); err != nil {
		s.logger.Error(ctx, "clearing cart after checkout", err)
	}

	if err := s.mailer.SendOrderConfirmation(ctx, email.ConfirmationInput{
		ToName:     customer.UserName,
		ToEmail:    customer.Email,
		OrderCode:  result.OrderCode,
		TotalCents: result.TotalCents,
	}); err != nil {
		s.metrics.IncEmailFailure()
		s.logger.Error(ctx, "sending order confirmation", err)
	}
}

func (s *service) createPaymentLink(ctx context.Context, orderCode string, totalCents int64, items []cart.Item) (*payos.PaymentLink, error) {
	lines := make([]payos.Item, len(items))
	for i, item := range items {
		lines[i] = payos.Item{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    item.PriceCents,
		}
	}
	link, err := s.gateway.CreatePaymentLink(ctx, payos.PaymentLinkRequest{
		OrderCode:   orderCode,
		AmountCents: totalCents,
		Description: "Order " + orderCode,
		Items:       lines,
		ReturnURL:   s.returnURL,
		CancelURL:   s.cancelURL,
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *service) recordFailure(err error) {
	reason := "persistence"
	if coded := pkgerrors.As(err); coded != nil {
		switch coded.Code() {
		case pkgerrors.CodeConflict:
			reason = "conflict"
		case pkgerrors.CodePaymentProvider:
			reason = "provider"
		case pkgerrors.CodeValidation:
			reason = "validation"
		}
	}
	s.metrics.IncFailed(reason)
}

func validateInput(input PlaceOrderInput) (enums.PaymentMethod, error) {
	if input.FirstName == "" || input.LastName == "" ||
		input.PhoneNumber == "" || input.AddressLine == "" || input.City == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, ValidationMessage)
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, ValidationMessage)
	}
	return method, nil
}
