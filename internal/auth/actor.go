// README: Authenticated actor identity carried through every call.
package auth

import "rideloop/internal/types"

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// Actor is the caller resolved once from the bearer credential. Role comes
// from the signed token, never from a request payload.
type Actor struct {
	ID   types.ID
	Role Role
}

func (a Actor) IsRider() bool  { return a.Role == RoleRider }
func (a Actor) IsDriver() bool { return a.Role == RoleDriver }
