// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCart = errors.New("cart: invalid")
)

// GuestOwnerID is the sentinel ownerId for carts that belong to no signed-in
// user. Guest carts are never eligible for abandonment notification.
const GuestOwnerID = "guest"

// CartItem represents "one line item" in a cart.
//
// AddedAt is written once by the storefront when the item first enters the
// cart and is never mutated afterwards; the abandonment core relies on it to
// decide staleness.
type CartItem struct {
	ProductID string          `json:"productId" firestore:"productId"`
	Name      string          `json:"name" firestore:"name"`
	Price     decimal.Decimal `json:"price" firestore:"-"`
	Qty       int             `json:"qty" firestore:"qty"`
	ImageURL  string          `json:"imageUrl,omitempty" firestore:"imageUrl"`
	AddedAt   time.Time       `json:"addedAt" firestore:"addedAt"`
}

// LineTotal returns price * qty.
func (it CartItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Qty)))
}

// Cart represents "a cart document".
//   - docId = cartId (Firestore)
//   - Items: []CartItem, insertion order preserved
//
// The storefront owns Items (add/update/remove); the abandonment core only
// reads Items and writes the two notification bookkeeping fields
// (LastNotificationSentAt, NotificationCount).
//
// OldestItemAddedAt is a derived field refreshed by the storefront on every
// items mutation. It exists so the store-side abandonment query has a single
// indexed staleness field to range over; it is never written by this worker.
type Cart struct {
	// ID is the Firestore docId.
	ID string `json:"id" firestore:"id"`

	// OwnerID references a user document, or GuestOwnerID.
	OwnerID string `json:"ownerId" firestore:"ownerId"`

	// Items is the ordered list of line items.
	Items []CartItem `json:"items" firestore:"items"`

	// Notification bookkeeping (the only fields this core writes).
	LastNotificationSentAt *time.Time `json:"lastNotificationSentAt,omitempty" firestore:"lastNotificationSentAt"`
	NotificationCount      int        `json:"notificationCount" firestore:"notificationCount"`

	OldestItemAddedAt *time.Time `json:"oldestItemAddedAt,omitempty" firestore:"oldestItemAddedAt"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// IsGuestOwned reports whether the cart belongs to the guest sentinel
// (or has no owner at all, which we treat the same way).
func (c *Cart) IsGuestOwned() bool {
	if c == nil {
		return true
	}
	owner := strings.TrimSpace(c.OwnerID)
	return owner == "" || owner == GuestOwnerID
}

// Validate checks structural invariants this core depends on.
// Items may be empty; present entries must carry a positive qty and a
// non-zero addedAt.
func (c *Cart) Validate() error {
	if c == nil {
		return ErrInvalidCart
	}
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidCart
	}
	if c.NotificationCount < 0 {
		return ErrInvalidCart
	}
	for _, it := range c.Items {
		if it.Qty <= 0 || it.AddedAt.IsZero() {
			return ErrInvalidCart
		}
		if it.Price.IsNegative() {
			return ErrInvalidCart
		}
	}
	return nil
}
