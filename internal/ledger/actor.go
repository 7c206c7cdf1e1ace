package ledger

import "github.com/iliyamo/parking-reservation/internal/model"

// Actor is the authenticated caller of a ledger operation.  It is built
// by the HTTP layer from a verified access token and passed explicitly
// into every operation.
type Actor struct {
	UserID uint64
	Role   string
}

// CarOwner and BuildingOwner are convenience constructors.
func CarOwner(id uint64) Actor      { return Actor{UserID: id, Role: model.UserTypeCarOwner} }
func BuildingOwner(id uint64) Actor { return Actor{UserID: id, Role: model.UserTypeBuildingOwner} }

// require returns an *AuthorizationError unless the actor is signed in
// and holds one of roles.  With no roles any signed-in actor passes.
func (a Actor) require(op string, roles ...string) error {
	if a.UserID == 0 || !model.ValidUserType(a.Role) {
		return &AuthorizationError{Op: op, Role: a.Role, Allowed: []string{"authenticated user"}}
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return &AuthorizationError{Op: op, Role: a.Role, Allowed: roles}
}
