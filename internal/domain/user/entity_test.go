package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"threadline/internal/domain/user"
)

func strPtr(s string) *string { return &s }

func TestProfile_DisplayName(t *testing.T) {
	tests := []struct {
		name    string
		profile *user.Profile
		want    string
	}{
		{
			name:    "full name preferred",
			profile: &user.Profile{FirstName: strPtr("Mina"), LastName: strPtr("Sato"), Email: "mina@example.com"},
			want:    "Mina Sato",
		},
		{
			name:    "first name only",
			profile: &user.Profile{FirstName: strPtr("Mina"), Email: "mina@example.com"},
			want:    "Mina",
		},
		{
			name:    "last name alone is not used, falls back to email local-part",
			profile: &user.Profile{LastName: strPtr("Sato"), Email: "mina.sato@example.com"},
			want:    "mina.sato",
		},
		{
			name:    "no names: local-part of email",
			profile: &user.Profile{Email: "shopper@example.com"},
			want:    "shopper",
		},
		{
			name:    "whitespace-only names ignored",
			profile: &user.Profile{FirstName: strPtr("  "), Email: "x@example.com"},
			want:    "x",
		},
		{
			name:    "nil profile",
			profile: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.DisplayName())
		})
	}
}

func TestProfile_Deliverable(t *testing.T) {
	assert.True(t, (&user.Profile{Email: "a@b.com"}).Deliverable())
	assert.False(t, (&user.Profile{Email: ""}).Deliverable())
	assert.False(t, (&user.Profile{Email: "not-an-address"}).Deliverable())
	assert.False(t, (*user.Profile)(nil).Deliverable())
}
