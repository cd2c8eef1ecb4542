package controllers

import (
	"net/http"
	"strconv"

	"github.com/khiels/storefront-backend/api/middleware"
	"github.com/khiels/storefront-backend/api/responses"
	"github.com/khiels/storefront-backend/internal/orders"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
	"github.com/khiels/storefront-backend/pkg/pagination"
)

type orderHistoryPage struct {
	Orders     []orderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderHistory handles GET /checkout/orders?limit=&cursor=. Pages are
// cursor-based so new orders arriving between requests never shift rows.
func OrderHistory(ordersRepo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userName := middleware.UserNameFromContext(ctx)
		if userName == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be an integer"))
				return
			}
			params.Limit = limit
		}
		if _, err := pagination.ParseCursor(params.Cursor); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		page, next, err := ordersRepo.ListPageByUserName(ctx, userName, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "listing orders"))
			return
		}

		body := orderHistoryPage{Orders: make([]orderSummary, 0, len(page)), NextCursor: next}
		for i := range page {
			body.Orders = append(body.Orders, buildOrderSummary(&page[i]))
		}
		responses.WriteSuccess(w, body)
	}
}
