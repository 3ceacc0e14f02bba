// internal/domain/cart/repository_port.go
package cart

import (
	"context"
	"time"
)

// AbandonmentStats is the monitoring view over currently-stale carts.
//
// It aggregates every cart with at least one item older than the threshold,
// independent of the cooldown / max-count gating (IsCandidate is the
// admission gate; this is operator telemetry).
type AbandonmentStats struct {
	TotalAbandonedCarts         int     `json:"totalAbandonedCarts"`
	TotalNotificationsSent      int     `json:"totalNotificationsSent"`
	AverageNotificationsPerCart float64 `json:"averageNotificationsPerCart"`
}

// Repository is the persistence port for abandonment processing.
//
// Storage layout (Firestore):
// - collection: carts
// - docId: cartId
// - fields: ownerId, items([]map), lastNotificationSentAt, notificationCount,
//   oldestItemAddedAt, createdAt, updatedAt
//
// The bookkeeping writes (MarkNotified / ResetNotificationState) must be
// field-scoped single-document updates so a concurrent storefront mutation of
// items is never clobbered.
type Repository interface {
	// GetByID returns (nil, nil) if the cart does not exist (nil policy).
	GetByID(ctx context.Context, cartID string) (*Cart, error)

	// FindAbandoned returns carts matching the store-side abandonment
	// prefilter for the given cutoff (= now - threshold): some item older
	// than cutoff, owner not guest, notificationCount < maxNotifications.
	// The cooldown branch of the admission gate is NOT pushed down; callers
	// re-run IsCandidate on every returned cart.
	FindAbandoned(ctx context.Context, cutoff time.Time, maxNotifications int) ([]*Cart, error)

	// MarkNotified atomically increments notificationCount by 1 and sets
	// lastNotificationSentAt = sentAt on the cart document.
	MarkNotified(ctx context.Context, cartID string, sentAt time.Time) error

	// ResetNotificationState zeroes notificationCount and clears
	// lastNotificationSentAt. Idempotent; a missing document is not an error.
	ResetNotificationState(ctx context.Context, cartID string) error

	// AbandonmentStats aggregates over carts matching the staleness
	// prefilter only (no guest/count/cooldown exclusion).
	AbandonmentStats(ctx context.Context, cutoff time.Time) (AbandonmentStats, error)
}
