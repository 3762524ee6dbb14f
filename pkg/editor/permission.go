package editor

import (
	"github.com/siamatlas/siamatlas/pkg/models"
)

// User is the authenticated identity an editing session runs as.
type User struct {
	ID   models.AdminID
	Name string
	Role models.AdminRole
}

// Editable is implemented by provinces and districts.
type Editable interface {
	Creators() models.AdminIDList
	Collaborators() models.CollaboratorList
	IsLocked() bool
}

// Gate decides whether the session user may mutate an entity. It is advisory
// on the client side; HTTP handlers re-apply the same rule server-side.
type Gate struct {
	user *User
}

// NewGate returns a gate for the given user, which may be nil (anonymous).
func NewGate(u *User) *Gate { return &Gate{user: u} }

// User returns the session user, nil when anonymous.
func (g *Gate) User() *User {
	if g == nil {
		return nil
	}
	return g.user
}

// CanEdit reports whether the session user may mutate e: true exactly when
// the user is in the creator list, or in the collaborator list with role
// "editor". A "viewer" entry never grants edit. Anonymous users and nil
// entities are always denied.
func (g *Gate) CanEdit(e Editable) bool {
	if g == nil || g.user == nil || e == nil {
		return false
	}
	return CanEdit(g.user, e)
}

// CanEditProvince is CanEdit with a nil-safe province receiver.
func (g *Gate) CanEditProvince(p *models.Province) bool {
	if p == nil {
		return false
	}
	return g.CanEdit(p)
}

// CanEditDistrict is CanEdit with a nil-safe district receiver.
func (g *Gate) CanEditDistrict(d *models.District) bool {
	if d == nil {
		return false
	}
	return g.CanEdit(d)
}

// CanEdit is the shared permission rule, also used by the HTTP handlers.
func CanEdit(u *User, e Editable) bool {
	if u == nil || e == nil {
		return false
	}
	if e.Creators().Contains(u.ID) {
		return true
	}
	return e.Collaborators().HasRole(u.ID, models.RoleEditor)
}

// CanMutate extends CanEdit with the lock rule: a locked entity only accepts
// mutation from a creator.
func CanMutate(u *User, e Editable) bool {
	if !CanEdit(u, e) {
		return false
	}
	if e.IsLocked() {
		return e.Creators().Contains(u.ID)
	}
	return true
}
