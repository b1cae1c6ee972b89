package userservice

import (
	"errors"

	"github.com/google/uuid"
)

var ErrNotPermitted = errors.New("not permitted")

// CanModify is the authorization gate for mutations. It permits the resource
// owner and admins, and denies everyone else including anonymous actors. It is
// purely evaluative: callers resolve resource existence before consulting it so
// a denial never reveals whether the resource exists.
func (u *User) CanModify(ownerID uuid.UUID) error {
	if u.IsAnonymous() {
		return ErrNotPermitted
	}

	if u.ID == ownerID || u.Role == RoleAdmin {
		return nil
	}

	return ErrNotPermitted
}

// CanModifyOwn is the stricter gate used where admins are not granted editing
// rights over other people's content, only the author is.
func (u *User) CanModifyOwn(ownerID uuid.UUID) error {
	if u.IsAnonymous() || u.ID != ownerID {
		return ErrNotPermitted
	}

	return nil
}
