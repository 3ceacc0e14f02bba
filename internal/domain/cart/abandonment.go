// internal/domain/cart/abandonment.go
package cart

import (
	"errors"
	"time"
)

var (
	ErrInvalidPolicy = errors.New("cart: invalid abandonment policy")
)

// Defaults for AbandonmentPolicy.
const (
	DefaultAbandonmentThreshold = 24 * time.Hour
	DefaultNotificationCooldown = 24 * time.Hour
	DefaultMaxNotifications     = 3
)

// AbandonmentPolicy is the admission policy for abandonment notifications.
//
//   - Threshold        : item age at which a line item counts as abandoned
//   - Cooldown         : minimum gap between two notifications for one cart
//   - MaxNotifications : lifetime cap per cart (reset on checkout conversion)
type AbandonmentPolicy struct {
	Threshold        time.Duration
	Cooldown         time.Duration
	MaxNotifications int
}

// DefaultAbandonmentPolicy returns the 24h / 24h / 3 policy.
func DefaultAbandonmentPolicy() AbandonmentPolicy {
	return AbandonmentPolicy{
		Threshold:        DefaultAbandonmentThreshold,
		Cooldown:         DefaultNotificationCooldown,
		MaxNotifications: DefaultMaxNotifications,
	}
}

// Validate rejects negative windows and a non-positive cap.
func (p AbandonmentPolicy) Validate() error {
	if p.Threshold < 0 || p.Cooldown < 0 || p.MaxNotifications <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// SelectAbandonedItems returns the subsequence of c.Items whose addedAt is
// older than now-threshold, in cart order.
//
// Pure: never mutates the cart, deterministic given now.
// Empty items → empty result, never an error.
func SelectAbandonedItems(c *Cart, now time.Time, threshold time.Duration) []CartItem {
	if c == nil || len(c.Items) == 0 {
		return []CartItem{}
	}

	cutoff := now.Add(-threshold)

	out := make([]CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.AddedAt.Before(cutoff) {
			out = append(out, it)
		}
	}
	return out
}

// IsCandidate is the sole admission gate into the notification path.
//
// True iff:
//   - the cart is not guest-owned
//   - SelectAbandonedItems is non-empty
//   - NotificationCount < policy.MaxNotifications
//   - LastNotificationSentAt is nil, or at least policy.Cooldown ago
//
// The Firestore query in the repository pushes part of this predicate down to
// the store as an optimization; this function is the definition, and callers
// must re-evaluate it on every fetched cart rather than trust the query.
func IsCandidate(c *Cart, now time.Time, p AbandonmentPolicy) bool {
	if c == nil || c.IsGuestOwned() {
		return false
	}
	if c.NotificationCount >= p.MaxNotifications {
		return false
	}
	if len(SelectAbandonedItems(c, now, p.Threshold)) == 0 {
		return false
	}
	if c.LastNotificationSentAt != nil && now.Sub(*c.LastNotificationSentAt) < p.Cooldown {
		return false
	}
	return true
}
