package controllers

import (
	"errors"
	"net/http"

	"github.com/khiels/storefront-backend/api/middleware"
	"github.com/khiels/storefront-backend/api/responses"
	"github.com/khiels/storefront-backend/api/validators"
	checkoutsvc "github.com/khiels/storefront-backend/internal/checkout"
	"github.com/khiels/storefront-backend/internal/orders"
	"github.com/khiels/storefront-backend/pkg/db/models"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// checkoutResponse is the storefront contract for the checkout form:
// a flat success flag plus either a redirect or a display message.
type checkoutResponse struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Message     string `json:"message,omitempty"`
}

// checkoutRequest mirrors the storefront shipping form. All validation
// failures collapse to the single display message the form shows.
type checkoutRequest struct {
	FirstName     string `validate:"required"`
	LastName      string `validate:"required"`
	PhoneNumber   string `validate:"required"`
	AddressLine   string `validate:"required"`
	City          string `validate:"required"`
	PaymentMethod string `validate:"required,oneof=cash hosted_gateway"`
}

// ProcessCheckout handles POST /checkout/process.
func ProcessCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := validators.ParseForm(r); err != nil {
			responses.WriteJSON(w, http.StatusOK, checkoutResponse{Success: false, Message: checkoutsvc.ValidationMessage})
			return
		}

		customer := checkoutsvc.Customer{
			UserName: middleware.UserNameFromContext(ctx),
			Email:    middleware.EmailFromContext(ctx),
		}
		form := checkoutRequest{
			FirstName:     validators.FormValue(r, "FirstName"),
			LastName:      validators.FormValue(r, "LastName"),
			PhoneNumber:   validators.FormValue(r, "PhoneNumber"),
			AddressLine:   validators.FormValue(r, "AddressLine"),
			City:          validators.FormValue(r, "City"),
			PaymentMethod: validators.FormValue(r, "PaymentMethod"),
		}
		if err := validators.ValidateStruct(form); err != nil {
			responses.WriteJSON(w, http.StatusOK, checkoutResponse{Success: false, Message: checkoutsvc.ValidationMessage})
			return
		}
		input := checkoutsvc.PlaceOrderInput{
			FirstName:     form.FirstName,
			LastName:      form.LastName,
			PhoneNumber:   form.PhoneNumber,
			AddressLine:   form.AddressLine,
			City:          form.City,
			PaymentMethod: form.PaymentMethod,
		}

		result, err := svc.PlaceOrder(ctx, customer, input)
		if err != nil {
			writeCheckoutError(w, r, logg, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, checkoutResponse{
			Success:     true,
			RedirectURL: result.RedirectURL,
		})
	}
}

// writeCheckoutError keeps the flat response shape the storefront form
// expects. Validation and conflict outcomes are display messages, not
// HTTP failures; infrastructure errors keep their status codes.
func writeCheckoutError(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	if logg != nil {
		ctx := logg.WithFields(r.Context(), map[string]any{
			"error_code":  string(typed.Code()),
			"error_chain": pkgerrors.Chain(err),
		})
		logg.Error(ctx, "checkout.failed", err)
	}

	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeConflict:
		responses.WriteJSON(w, http.StatusOK, checkoutResponse{Success: false, Message: typed.Message()})
	case pkgerrors.CodeUnauthorized:
		responses.WriteJSON(w, http.StatusUnauthorized, checkoutResponse{Success: false, Message: pkgerrors.MetadataFor(typed.Code()).PublicMessage})
	default:
		meta := pkgerrors.MetadataFor(typed.Code())
		responses.WriteJSON(w, meta.HTTPStatus, checkoutResponse{Success: false, Message: meta.PublicMessage})
	}
}

type orderSummary struct {
	OrderCode     string             `json:"order_code"`
	Status        string             `json:"status"`
	TotalCents    int64              `json:"total_cents"`
	DiscountCents int64              `json:"discount_cents"`
	OrderDate     string             `json:"order_date"`
	Items         []orderSummaryItem `json:"items"`
	Payment       *paymentSummary    `json:"payment,omitempty"`
}

type orderSummaryItem struct {
	ProductName string `json:"product_name"`
	Size        string `json:"size,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Quantity    int64  `json:"quantity"`
}

type paymentSummary struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

// ThankYou handles GET /checkout/thank-you?orderCode=...
func ThankYou(ordersRepo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderCode := r.URL.Query().Get("orderCode")
		if orderCode == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderCode is required"))
			return
		}

		order, err := ordersRepo.FindByOrderCode(ctx, orderCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading order"))
			return
		}

		if order.UserName != middleware.UserNameFromContext(ctx) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccess(w, buildOrderSummary(order))
	}
}

func buildOrderSummary(order *models.Order) orderSummary {
	summary := orderSummary{
		OrderCode:     order.OrderCode,
		Status:        order.Status.String(),
		TotalCents:    order.TotalCents,
		DiscountCents: order.DiscountCents,
		OrderDate:     order.OrderDate.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, detail := range order.Details {
		summary.Items = append(summary.Items, orderSummaryItem{
			ProductName: detail.ProductName,
			Size:        detail.Size,
			PriceCents:  detail.PriceCents,
			Quantity:    detail.Quantity,
		})
	}
	if order.Payment != nil {
		summary.Payment = &paymentSummary{
			Method: order.Payment.Method.String(),
			Status: order.Payment.Status.String(),
		}
	}
	return summary
}
