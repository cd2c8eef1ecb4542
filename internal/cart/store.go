package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	pkgredis "github.com/khiels/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one line in a shopper's session cart.
type Item struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Size        string    `json:"size"`
	PriceCents  int64     `json:"price_cents"`
	Quantity    int64     `json:"quantity"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// SubtotalCents is the line amount before any discount.
func (i Item) SubtotalCents() int64 {
	return i.PriceCents * i.Quantity
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userName string) string
	DiscountKey(userName string) string
}

// Store reads and clears the session cart kept in redis.
type Store interface {
	Items(ctx context.Context, userName string) ([]Item, error)
	DiscountCents(ctx context.Context, userName string) (int64, error)
	Clear(ctx context.Context, userName string) error
}

type store struct {
	kv kvStore
}

// NewStore builds a cart store backed by the provided key-value client.
func NewStore(kv kvStore) (Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("key-value client required")
	}
	return &store{kv: kv}, nil
}

// Items loads the shopper's cart lines. A missing key is an empty cart.
func (s *store) Items(ctx context.Context, userName string) ([]Item, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(userName))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding cart payload")
	}
	return items, nil
}

// DiscountCents returns the applied discount for the shopper, zero when none
// is set. The stored value is a decimal string so promotional tooling can
// write fractional amounts; it is floored to whole cents here.
func (s *store) DiscountCents(ctx context.Context, userName string) (int64, error) {
	raw, err := s.kv.Get(ctx, s.kv.DiscountKey(userName))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading discount")
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding discount value")
	}
	if amount.IsNegative() {
		return 0, nil
	}
	return amount.Floor().IntPart(), nil
}

// Clear removes the cart and any discount after an order is placed.
func (s *store) Clear(ctx context.Context, userName string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(userName), s.kv.DiscountKey(userName)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}
