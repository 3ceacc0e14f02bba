// internal/domain/user/directory_port.go
package user

import "context"

// Directory resolves an owner id to a notifiable profile.
//
// Not-found policy: return (nil, nil); the caller treats an absent profile
// the same as an undeliverable one (skip, do not fail the batch).
type Directory interface {
	ResolveProfile(ctx context.Context, userID string) (*Profile, error)
}
