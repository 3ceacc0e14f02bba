// internal/adapters/out/mail/abandonment_mailer.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	cartdom "threadline/internal/domain/cart"
)

var (
	ErrNoItems = errors.New("abandonment_mailer: no items to render")
)

// AbandonmentMailer renders and delivers the "you left items in your cart"
// notification. It implements usecase.AbandonmentMailerPort.
//
//   - client      : EmailClient (SendGrid in production)
//   - fromAddress : sender address
//   - mallBaseURL : base URL of the storefront, e.g. "https://shop.threadline.jp"
type AbandonmentMailer struct {
	client      EmailClient
	fromAddress string
	mallBaseURL string
}

func NewAbandonmentMailer(client EmailClient, fromAddress, mallBaseURL string) *AbandonmentMailer {
	base := strings.TrimRight(strings.TrimSpace(mallBaseURL), "/")
	return &AbandonmentMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		mallBaseURL: base,
	}
}

// buildCartURL builds the deep link to the cart view embedded in the mail.
// 仕様: https://shop.threadline.jp/cart
func (m *AbandonmentMailer) buildCartURL() string {
	return m.mallBaseURL + "/cart"
}

// SendAbandonmentEmail renders the notification for the qualifying items and
// hands it to the EmailClient. The caller decides what a delivery failure
// means for the batch; this method only reports it.
func (m *AbandonmentMailer) SendAbandonmentEmail(
	ctx context.Context,
	toEmail string,
	displayName string,
	items []cartdom.CartItem,
) error {
	if len(items) == 0 {
		return ErrNoItems
	}

	subject := "Your Threadline cart is waiting for you"

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", firstNonEmpty(displayName, "there"))
	b.WriteString("You left these items in your cart:\n\n")

	total := decimal.Zero
	for _, it := range items {
		line := it.LineTotal()
		total = total.Add(line)
		fmt.Fprintf(&b, "  - %s  x%d  %s\n", it.Name, it.Qty, line.StringFixed(2))
	}

	fmt.Fprintf(&b, "\nCart total: %s\n", total.StringFixed(2))
	fmt.Fprintf(&b, "\nPick up where you left off: %s\n", m.buildCartURL())
	b.WriteString("\n-- \nThreadline")

	return m.client.Send(ctx, m.fromAddress, strings.TrimSpace(toEmail), subject, b.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
