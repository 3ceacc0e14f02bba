package firestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartDoc_ToDomain(t *testing.T) {
	added := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sent := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	doc := cartDoc{
		OwnerID: " u-1 ",
		Items: []cartItemDoc{
			{ProductID: "p-1", Name: "Linen blazer", Price: "120.00", Qty: 1, AddedAt: added},
			{ProductID: "p-2", Name: "Silk scarf", Price: "35.50", Qty: 2, ImageURL: " https://img/x.jpg ", AddedAt: added},
		},
		LastNotificationSentAt: &sent,
		NotificationCount:      2,
	}

	c := doc.toDomain()

	assert.Equal(t, "u-1", c.OwnerID)
	require.Len(t, c.Items, 2)
	assert.True(t, c.Items[0].Price.Equal(decimal.NewFromInt(120)))
	assert.True(t, c.Items[1].Price.Equal(decimal.NewFromFloat(35.50)))
	assert.Equal(t, "https://img/x.jpg", c.Items[1].ImageURL)
	assert.Equal(t, 2, c.NotificationCount)
	require.NotNil(t, c.LastNotificationSentAt)
	assert.Equal(t, sent, *c.LastNotificationSentAt)
}

func TestCartDoc_ToDomain_BadPriceKeepsItem(t *testing.T) {
	added := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	doc := cartDoc{
		OwnerID: "u-1",
		Items: []cartItemDoc{
			{ProductID: "p-1", Name: "Legacy row", Price: "not-a-number", Qty: 1, AddedAt: added},
		},
	}

	c := doc.toDomain()

	// staleness evaluation must still see the item; price degrades to zero
	require.Len(t, c.Items, 1)
	assert.True(t, c.Items[0].Price.IsZero())
	assert.Equal(t, added, c.Items[0].AddedAt)
}

func TestNewCartRepositoryFS_DefaultCollection(t *testing.T) {
	r := NewCartRepositoryFS(nil, "  ")
	assert.Equal(t, "carts", r.Collection)

	r = NewCartRepositoryFS(nil, "carts_staging")
	assert.Equal(t, "carts_staging", r.Collection)
}
