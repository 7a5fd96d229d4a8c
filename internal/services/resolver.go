package services

import (
	"errors"

	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"
)

// IdentityResolver answers the single question the intake flow needs:
// does a Hub account already exist for this normalized email address?
type IdentityResolver struct {
	store *store.Store
}

func NewIdentityResolver(s *store.Store) *IdentityResolver {
	return &IdentityResolver{store: s}
}

// Resolve looks up a Hub account by normalized email. A miss is not an
// error; it returns (nil, nil) and the caller decides whether to
// auto-provision.
func (r *IdentityResolver) Resolve(email string) (*models.User, error) {
	user, err := r.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
