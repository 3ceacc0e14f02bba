// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "threadline/internal/domain/cart"
)

const defaultCartsCollection = "carts"

// CartRepositoryFS implements cart.Repository using Firestore.
//
// Collection design:
// - collection: carts
// - docId: cartId
// - fields: ownerId, items([]map), lastNotificationSentAt, notificationCount,
//   oldestItemAddedAt, createdAt, updatedAt
//
// oldestItemAddedAt is maintained by the storefront on every items mutation;
// this repository only ranges over it. Bookkeeping writes are field-scoped
// updates so they never clobber a concurrent items mutation.
type CartRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewCartRepositoryFS(client *firestore.Client, collection string) *CartRepositoryFS {
	col := strings.TrimSpace(collection)
	if col == "" {
		col = defaultCartsCollection
	}
	return &CartRepositoryFS{Client: client, Collection: col}
}

// Compile-time check
var _ cartdom.Repository = (*CartRepositoryFS)(nil)

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// GetByID returns (nil, nil) if not found (nil policy).
func (r *CartRepositoryFS) GetByID(ctx context.Context, cartID string) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(cartID)
	if id == "" {
		return nil, errors.New("cart_repository_fs: cartID is empty")
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc cartDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}

	c := doc.toDomain()
	// docId is the source of truth for the id
	c.ID = id
	return c, nil
}

// FindAbandoned returns carts matching the store-side prefilter:
// some item older than cutoff (via oldestItemAddedAt), owner not guest,
// notificationCount under the cap.
//
// The cooldown branch of the admission gate cannot be expressed as a single
// Firestore query (null-or-older is an OR); callers re-run cart.IsCandidate
// on every returned cart, which also guards against drift between this query
// and the evaluator.
func (r *CartRepositoryFS) FindAbandoned(ctx context.Context, cutoff time.Time, maxNotifications int) ([]*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}

	q := r.col().
		Where("oldestItemAddedAt", "<", cutoff.UTC()).
		Where("ownerId", "!=", cartdom.GuestOwnerID).
		Where("notificationCount", "<", maxNotifications)

	it := q.Documents(ctx)
	defer it.Stop()

	var out []*cartdom.Cart
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var doc cartDoc
		if err := snap.DataTo(&doc); err != nil {
			// data inconsistency: skip this cart, keep the batch alive
			log.Printf("[cart_repository_fs] WARN: skip undecodable cart doc=%s: %v", snap.Ref.ID, err)
			continue
		}

		c := doc.toDomain()
		c.ID = snap.Ref.ID
		if err := c.Validate(); err != nil {
			log.Printf("[cart_repository_fs] WARN: skip invalid cart doc=%s: %v", snap.Ref.ID, err)
			continue
		}
		out = append(out, c)
	}

	return out, nil
}

// MarkNotified atomically increments notificationCount and stamps
// lastNotificationSentAt on the cart document (field-scoped update).
func (r *CartRepositoryFS) MarkNotified(ctx context.Context, cartID string, sentAt time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(cartID)
	if id == "" {
		return errors.New("cart_repository_fs: cartID is empty")
	}

	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "notificationCount", Value: firestore.Increment(1)},
		{Path: "lastNotificationSentAt", Value: sentAt.UTC()},
	})
	return err
}

// ResetNotificationState zeroes both bookkeeping fields.
// A missing document is treated as success (idempotent).
func (r *CartRepositoryFS) ResetNotificationState(ctx context.Context, cartID string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	id := strings.TrimSpace(cartID)
	if id == "" {
		return errors.New("cart_repository_fs: cartID is empty")
	}

	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "notificationCount", Value: 0},
		{Path: "lastNotificationSentAt", Value: nil},
	})
	if err != nil && status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// AbandonmentStats aggregates over carts matching the staleness prefilter
// only (monitoring view; guest and exhausted carts included).
func (r *CartRepositoryFS) AbandonmentStats(ctx context.Context, cutoff time.Time) (cartdom.AbandonmentStats, error) {
	if r == nil || r.Client == nil {
		return cartdom.AbandonmentStats{}, errors.New("cart_repository_fs: firestore client is nil")
	}

	it := r.col().Where("oldestItemAddedAt", "<", cutoff.UTC()).Documents(ctx)
	defer it.Stop()

	var stats cartdom.AbandonmentStats
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return cartdom.AbandonmentStats{}, err
		}

		var doc cartDoc
		if err := snap.DataTo(&doc); err != nil {
			log.Printf("[cart_repository_fs] WARN: skip undecodable cart doc=%s: %v", snap.Ref.ID, err)
			continue
		}

		stats.TotalAbandonedCarts++
		stats.TotalNotificationsSent += doc.NotificationCount
	}

	if stats.TotalAbandonedCarts > 0 {
		stats.AverageNotificationsPerCart = float64(stats.TotalNotificationsSent) / float64(stats.TotalAbandonedCarts)
	}
	return stats, nil
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type cartDoc struct {
	OwnerID                string        `firestore:"ownerId"`
	Items                  []cartItemDoc `firestore:"items"`
	LastNotificationSentAt *time.Time    `firestore:"lastNotificationSentAt"`
	NotificationCount      int           `firestore:"notificationCount"`
	OldestItemAddedAt      *time.Time    `firestore:"oldestItemAddedAt"`
	CreatedAt              time.Time     `firestore:"createdAt"`
	UpdatedAt              time.Time     `firestore:"updatedAt"`
}

type cartItemDoc struct {
	ProductID string    `firestore:"productId"`
	Name      string    `firestore:"name"`
	Price     string    `firestore:"price"`
	Qty       int       `firestore:"qty"`
	ImageURL  string    `firestore:"imageUrl"`
	AddedAt   time.Time `firestore:"addedAt"`
}

func (d cartDoc) toDomain() *cartdom.Cart {
	items := make([]cartdom.CartItem, 0, len(d.Items))
	for _, it := range d.Items {
		price, err := decimal.NewFromString(strings.TrimSpace(it.Price))
		if err != nil {
			// staleness matters more than price here; keep the item
			price = decimal.Zero
		}
		items = append(items, cartdom.CartItem{
			ProductID: strings.TrimSpace(it.ProductID),
			Name:      it.Name,
			Price:     price,
			Qty:       it.Qty,
			ImageURL:  strings.TrimSpace(it.ImageURL),
			AddedAt:   it.AddedAt,
		})
	}

	return &cartdom.Cart{
		// ID is filled by the caller from the docId
		OwnerID:                strings.TrimSpace(d.OwnerID),
		Items:                  items,
		LastNotificationSentAt: d.LastNotificationSentAt,
		NotificationCount:      d.NotificationCount,
		OldestItemAddedAt:      d.OldestItemAddedAt,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}
