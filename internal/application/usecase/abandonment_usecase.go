// internal/application/usecase/abandonment_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	cartdom "threadline/internal/domain/cart"
	userdom "threadline/internal/domain/user"
)

var (
	ErrAbandonmentInvalidArgument = errors.New("abandonment_usecase: invalid argument")
)

// AbandonmentMailerPort is the outbound port for rendering and delivering a
// single abandonment notification (SendGrid / SMTP behind it).
type AbandonmentMailerPort interface {
	SendAbandonmentEmail(ctx context.Context, toEmail string, displayName string, items []cartdom.CartItem) error
}

// AbandonmentOptions tunes the batch pass.
//
//   - SendDelay      : fixed pause between deliveries (mail-gateway throttling)
//   - MaxRunDuration : hard cap on one whole pass; 0 disables
type AbandonmentOptions struct {
	SendDelay      time.Duration
	MaxRunDuration time.Duration
	Clock          Clock
}

// DefaultAbandonmentOptions returns 1s send delay, 10m run cap, system clock.
func DefaultAbandonmentOptions() AbandonmentOptions {
	return AbandonmentOptions{
		SendDelay:      1 * time.Second,
		MaxRunDuration: 10 * time.Minute,
		Clock:          systemClock{},
	}
}

// AbandonmentUsecase runs one end-to-end pass over eligible carts:
// query candidates → evaluate → resolve owner → render+deliver → record.
//
// Per-cart failures are logged and never abort the batch; there is no caller
// awaiting a result other than the manual-trigger path, which gets a
// best-effort count.
type AbandonmentUsecase struct {
	repo      cartdom.Repository
	directory userdom.Directory
	mailer    AbandonmentMailerPort
	policy    cartdom.AbandonmentPolicy

	sendDelay time.Duration
	maxRun    time.Duration
	clock     Clock
}

func NewAbandonmentUsecase(
	repo cartdom.Repository,
	directory userdom.Directory,
	mailer AbandonmentMailerPort,
	policy cartdom.AbandonmentPolicy,
	opts AbandonmentOptions,
) (*AbandonmentUsecase, error) {
	if repo == nil || directory == nil || mailer == nil {
		return nil, ErrAbandonmentInvalidArgument
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.SendDelay < 0 || opts.MaxRunDuration < 0 {
		return nil, ErrAbandonmentInvalidArgument
	}

	return &AbandonmentUsecase{
		repo:      repo,
		directory: directory,
		mailer:    mailer,
		policy:    policy,
		sendDelay: opts.SendDelay,
		maxRun:    opts.MaxRunDuration,
		clock:     opts.Clock,
	}, nil
}

// FindAbandonedCarts queries the store for notification candidates.
//
// The store query pushes down staleness / guest / max-count as an
// optimization; IsCandidate is re-run here on every fetched cart so the two
// formulations can never silently drift (the evaluator is the definition).
func (uc *AbandonmentUsecase) FindAbandonedCarts(ctx context.Context) ([]*cartdom.Cart, error) {
	now := uc.clock.Now()
	cutoff := now.Add(-uc.policy.Threshold)

	carts, err := uc.repo.FindAbandoned(ctx, cutoff, uc.policy.MaxNotifications)
	if err != nil {
		return nil, err
	}

	out := make([]*cartdom.Cart, 0, len(carts))
	for _, c := range carts {
		if cartdom.IsCandidate(c, now, uc.policy) {
			out = append(out, c)
		}
	}
	return out, nil
}

// SendAbandonmentNotification delivers one notification for one cart.
// Returns true only when the mail was delivered AND the bookkeeping write
// succeeded. Every failure path is logged and swallowed; callers keep
// iterating the batch.
func (uc *AbandonmentUsecase) SendAbandonmentNotification(ctx context.Context, c *cartdom.Cart) bool {
	if c == nil || len(c.Items) == 0 || c.IsGuestOwned() {
		return false
	}

	now := uc.clock.Now()

	profile, err := uc.directory.ResolveProfile(ctx, c.OwnerID)
	if err != nil {
		log.Printf("[abandonment] WARN: profile lookup failed cart=%s owner=%s: %v", c.ID, c.OwnerID, err)
		return false
	}
	if profile == nil || !profile.Deliverable() {
		log.Printf("[abandonment] skip cart=%s: owner %s has no deliverable address", c.ID, c.OwnerID)
		return false
	}

	items := cartdom.SelectAbandonedItems(c, now, uc.policy.Threshold)
	if len(items) == 0 {
		return false
	}

	if err := uc.mailer.SendAbandonmentEmail(ctx, profile.Email, profile.DisplayName(), items); err != nil {
		// Delivery failure is non-fatal for the batch; bookkeeping stays
		// untouched so the cart re-qualifies on the next pass.
		log.Printf("[abandonment] WARN: delivery failed cart=%s to=%s: %v", c.ID, profile.Email, err)
		return false
	}

	if err := uc.repo.MarkNotified(ctx, c.ID, now); err != nil {
		log.Printf("[abandonment] WARN: bookkeeping update failed cart=%s: %v", c.ID, err)
		return false
	}

	log.Printf("[abandonment] notified cart=%s to=%s items=%d count=%d",
		c.ID, profile.Email, len(items), c.NotificationCount+1)
	return true
}

// ProcessAbandonedCarts runs one sequential pass and returns the number of
// notifications sent. A failing initial query is logged and yields 0.
//
// The loop is intentionally sequential: the fixed inter-send delay is the
// backpressure mechanism against the mail gateway.
func (uc *AbandonmentUsecase) ProcessAbandonedCarts(ctx context.Context) int {
	if uc.maxRun > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.maxRun)
		defer cancel()
	}

	carts, err := uc.FindAbandonedCarts(ctx)
	if err != nil {
		log.Printf("[abandonment] WARN: candidate query failed: %v", err)
		return 0
	}
	if len(carts) == 0 {
		log.Printf("[abandonment] no candidate carts")
		return 0
	}

	log.Printf("[abandonment] processing %d candidate carts", len(carts))

	sent := 0
	for i, c := range carts {
		if ctx.Err() != nil {
			log.Printf("[abandonment] WARN: run aborted after %d/%d carts: %v", i, len(carts), ctx.Err())
			break
		}

		if uc.SendAbandonmentNotification(ctx, c) {
			sent++
		}

		// throttle between deliveries (not after the last one)
		if uc.sendDelay > 0 && i < len(carts)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(uc.sendDelay):
			}
		}
	}

	log.Printf("[abandonment] pass finished sent=%d of %d", sent, len(carts))
	return sent
}

// ResetNotificationState zeroes the notification bookkeeping for a cart.
// Called when a cart converts to an order (checkout完了時にストアフロント側
// から呼ばれる)。Idempotent.
func (uc *AbandonmentUsecase) ResetNotificationState(ctx context.Context, cartID string) error {
	id := strings.TrimSpace(cartID)
	if id == "" {
		return ErrAbandonmentInvalidArgument
	}
	return uc.repo.ResetNotificationState(ctx, id)
}

// GetAbandonmentStats returns the monitoring aggregate. Never fails: an
// aggregation error is logged and the zero-valued record returned.
func (uc *AbandonmentUsecase) GetAbandonmentStats(ctx context.Context) cartdom.AbandonmentStats {
	cutoff := uc.clock.Now().Add(-uc.policy.Threshold)

	stats, err := uc.repo.AbandonmentStats(ctx, cutoff)
	if err != nil {
		log.Printf("[abandonment] WARN: stats aggregation failed: %v", err)
		return cartdom.AbandonmentStats{}
	}
	return stats
}
