package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khiels/storefront-backend/api/middleware"
	"github.com/khiels/storefront-backend/internal/orders"
	"github.com/khiels/storefront-backend/pkg/db/models"
	"github.com/khiels/storefront-backend/pkg/enums"
	"github.com/khiels/storefront-backend/pkg/pagination"
)

type stubOrderLister struct {
	orders.Repository

	page     []models.Order
	next     string
	err      error
	userName string
	params   pagination.Params
}

func (s *stubOrderLister) ListPageByUserName(ctx context.Context, userName string, params pagination.Params) ([]models.Order, string, error) {
	s.userName = userName
	s.params = params
	if s.err != nil {
		return nil, "", s.err
	}
	return s.page, s.next, nil
}

func getOrderHistory(t *testing.T, handler http.HandlerFunc, query, userName string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/checkout/orders"+query, nil)
	if userName != "" {
		req = req.WithContext(middleware.WithIdentity(req.Context(), userName, userName+"@example.com"))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestOrderHistory(t *testing.T) {
	t.Parallel()

	repo := &stubOrderLister{
		page: []models.Order{{
			OrderCode:  "ORD-1",
			UserName:   "minh",
			OrderDate:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			Status:     enums.OrderStatusConfirmed,
			TotalCents: 45000,
			Details: []models.OrderDetail{
				{ProductName: "Basic Tee", Size: "M", PriceCents: 22500, Quantity: 2},
			},
		}},
		next: "cursor-2",
	}
	rec := getOrderHistory(t, OrderHistory(repo, testLogger()), "?limit=1", "minh")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "minh", repo.userName)
	assert.Equal(t, 1, repo.params.Limit)

	var body struct {
		Data orderHistoryPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Orders, 1)
	assert.Equal(t, "ORD-1", body.Data.Orders[0].OrderCode)
	assert.Equal(t, "confirmed", body.Data.Orders[0].Status)
	assert.Equal(t, "cursor-2", body.Data.NextCursor)
}

func TestOrderHistoryRequiresIdentity(t *testing.T) {
	t.Parallel()

	rec := getOrderHistory(t, OrderHistory(&stubOrderLister{}, testLogger()), "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderHistoryRejectsBadLimit(t *testing.T) {
	t.Parallel()

	rec := getOrderHistory(t, OrderHistory(&stubOrderLister{}, testLogger()), "?limit=abc", "minh")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHistoryRejectsBadCursor(t *testing.T) {
	t.Parallel()

	rec := getOrderHistory(t, OrderHistory(&stubOrderLister{}, testLogger()), "?cursor=%21%21", "minh")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
