// README: Account domain model (riders and drivers share one account table).
package account

import (
	"time"

	"rideloop/internal/auth"
	"rideloop/internal/types"
)

type Account struct {
	ID           types.ID
	Email        string
	Name         string
	Phone        string
	Role         auth.Role
	PasswordHash string
	CreatedAt    time.Time

	// Driver-only fields; zero-valued for riders.
	License string
	Vehicle *Vehicle
}

type Vehicle struct {
	Plate string `json:"plate"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Color string `json:"color"`
	Seats int    `json:"seats"`
}

// Profile is the account view returned to its owner. It never carries the
// password hash.
type Profile struct {
	ID        types.ID  `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      auth.Role `json:"role"`
	License   string    `json:"license,omitempty"`
	Vehicle   *Vehicle  `json:"vehicle,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Account) Profile() Profile {
	return Profile{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Phone:     a.Phone,
		Role:      a.Role,
		License:   a.License,
		Vehicle:   a.Vehicle,
		CreatedAt: a.CreatedAt,
	}
}
