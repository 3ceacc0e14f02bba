// internal/adapters/out/firestore/user_directory_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	userdom "threadline/internal/domain/user"
)

const defaultUsersCollection = "users"

// UserDirectoryFS implements user.Directory using Firestore.
//
// Collection design:
// - collection: users (owned by the storefront backend; read-only here)
// - docId: userId
// - fields consumed: firstName, lastName, email
type UserDirectoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewUserDirectoryFS(client *firestore.Client, collection string) *UserDirectoryFS {
	col := strings.TrimSpace(collection)
	if col == "" {
		col = defaultUsersCollection
	}
	return &UserDirectoryFS{Client: client, Collection: col}
}

// Compile-time check
var _ userdom.Directory = (*UserDirectoryFS)(nil)

func (d *UserDirectoryFS) col() *firestore.CollectionRef {
	return d.Client.Collection(d.Collection)
}

// ResolveProfile returns (nil, nil) if the user does not exist (nil policy).
func (d *UserDirectoryFS) ResolveProfile(ctx context.Context, userID string) (*userdom.Profile, error) {
	if d == nil || d.Client == nil {
		return nil, errors.New("user_directory_fs: firestore client is nil")
	}

	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("user_directory_fs: userID is empty")
	}

	snap, err := d.col().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}

	p := doc.toDomain()
	p.ID = uid
	return p, nil
}

type profileDoc struct {
	FirstName *string `firestore:"firstName"`
	LastName  *string `firestore:"lastName"`
	Email     string  `firestore:"email"`
}

func (d profileDoc) toDomain() *userdom.Profile {
	return &userdom.Profile{
		FirstName: normalizePtr(d.FirstName),
		LastName:  normalizePtr(d.LastName),
		Email:     strings.TrimSpace(d.Email),
	}
}

func normalizePtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
