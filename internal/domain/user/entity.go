// internal/domain/user/entity.go
package user

import (
	"errors"
	"strings"
)

var (
	ErrInvalidProfile = errors.New("user: invalid profile")
)

// Profile is the notifiable view of a user: just enough to address and
// greet them. The full user document (auth, addresses, order history) is
// owned by the storefront backend.
type Profile struct {
	ID        string  `json:"id" firestore:"id"`
	FirstName *string `json:"firstName,omitempty" firestore:"firstName"`
	LastName  *string `json:"lastName,omitempty" firestore:"lastName"`
	Email     string  `json:"email" firestore:"email"`
}

// DisplayName builds a greeting name.
// Preference: full name → first name → local-part of email.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}

	first := derefTrim(p.FirstName)
	last := derefTrim(p.LastName)

	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	}

	email := strings.TrimSpace(p.Email)
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// Deliverable reports whether the profile carries an address we can mail to.
func (p *Profile) Deliverable() bool {
	if p == nil {
		return false
	}
	email := strings.TrimSpace(p.Email)
	return email != "" && strings.Contains(email, "@")
}

func derefTrim(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
