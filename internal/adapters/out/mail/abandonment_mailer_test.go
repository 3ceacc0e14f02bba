package mail_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadline/internal/adapters/out/mail"
	cartdom "threadline/internal/domain/cart"
)

type capturingClient struct {
	from, to, subject, body string
	err                     error
}

func (c *capturingClient) Send(_ context.Context, from, to, subject, body string) error {
	if c.err != nil {
		return c.err
	}
	c.from, c.to, c.subject, c.body = from, to, subject, body
	return nil
}

func testItems() []cartdom.CartItem {
	return []cartdom.CartItem{
		{ProductID: "p-1", Name: "Linen blazer", Price: decimal.NewFromInt(120), Qty: 1, AddedAt: time.Now().Add(-48 * time.Hour)},
		{ProductID: "p-2", Name: "Silk scarf", Price: decimal.NewFromFloat(35.50), Qty: 2, AddedAt: time.Now().Add(-30 * time.Hour)},
	}
}

func TestSendAbandonmentEmail_RendersItemsAndLink(t *testing.T) {
	client := &capturingClient{}
	m := mail.NewAbandonmentMailer(client, "no-reply@threadline.jp", "https://shop.threadline.jp/")

	err := m.SendAbandonmentEmail(t.Context(), "mina@example.com", "Mina", testItems())
	require.NoError(t, err)

	assert.Equal(t, "no-reply@threadline.jp", client.from)
	assert.Equal(t, "mina@example.com", client.to)
	assert.Contains(t, client.subject, "cart")

	assert.Contains(t, client.body, "Hi Mina,")
	assert.Contains(t, client.body, "Linen blazer")
	assert.Contains(t, client.body, "Silk scarf")
	assert.Contains(t, client.body, "x2")
	assert.Contains(t, client.body, "71.00")          // 35.50 * 2
	assert.Contains(t, client.body, "Cart total: 191.00") // 120 + 71
	// trailing slash on the base URL must not double up
	assert.Contains(t, client.body, "https://shop.threadline.jp/cart")
	assert.NotContains(t, client.body, "jp//cart")
}

func TestSendAbandonmentEmail_FallbackGreeting(t *testing.T) {
	client := &capturingClient{}
	m := mail.NewAbandonmentMailer(client, "no-reply@threadline.jp", "https://shop.threadline.jp")

	require.NoError(t, m.SendAbandonmentEmail(t.Context(), "x@example.com", "  ", testItems()))
	assert.Contains(t, client.body, "Hi there,")
}

func TestSendAbandonmentEmail_NoItems(t *testing.T) {
	m := mail.NewAbandonmentMailer(&capturingClient{}, "no-reply@threadline.jp", "https://shop.threadline.jp")

	err := m.SendAbandonmentEmail(t.Context(), "x@example.com", "Mina", nil)
	require.ErrorIs(t, err, mail.ErrNoItems)
}

func TestSendAbandonmentEmail_ClientErrorPropagates(t *testing.T) {
	client := &capturingClient{err: errors.New("sendgrid send failed: status=503")}
	m := mail.NewAbandonmentMailer(client, "no-reply@threadline.jp", "https://shop.threadline.jp")

	err := m.SendAbandonmentEmail(t.Context(), "x@example.com", "Mina", testItems())
	require.Error(t, err)
}
