// README: Account service handles signup, login, and profile reads.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rideloop/internal/auth"
	"rideloop/internal/types"
)

var (
	ErrInvalidInput   = errors.New("invalid account input")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrNotFound       = errors.New("account not found")
	ErrUnavailable    = errors.New("account store unavailable")
)

// TokenIssuer mints a bearer credential for an authenticated actor.
// Implemented by auth.TokenService.
type TokenIssuer interface {
	Issue(a auth.Actor) (string, error)
}

type Service struct {
	store  Store
	issuer TokenIssuer
	now    func() time.Time
}

func NewService(store Store, issuer TokenIssuer) *Service {
	return &Service{store: store, issuer: issuer, now: time.Now}
}

type RegisterCommand struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role"`
	License  string    `json:"license,omitempty"`
	Vehicle  *Vehicle  `json:"vehicle,omitempty"`
}

// Register creates an account and returns the profile. Drivers must supply a
// license; riders must not supply driver fields.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (Profile, error) {
	cmd.Email = strings.TrimSpace(strings.ToLower(cmd.Email))
	cmd.Name = strings.TrimSpace(cmd.Name)

	if cmd.Name == "" || !strings.Contains(cmd.Email, "@") {
		return Profile{}, ErrInvalidInput
	}
	if len(cmd.Password) < 8 {
		return Profile{}, ErrInvalidInput
	}
	switch cmd.Role {
	case auth.RoleRider:
		if cmd.License != "" || cmd.Vehicle != nil {
			return Profile{}, ErrInvalidInput
		}
	case auth.RoleDriver:
		if cmd.License == "" {
			return Profile{}, ErrInvalidInput
		}
	default:
		return Profile{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return Profile{}, err
	}

	a := &Account{
		ID:           types.ID(uuid.NewString()),
		Email:        cmd.Email,
		Name:         cmd.Name,
		Phone:        cmd.Phone,
		Role:         cmd.Role,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
		License:      cmd.License,
		Vehicle:      cmd.Vehicle,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return Profile{}, err
	}
	return a.Profile(), nil
}

// Login checks the password and issues a token embedding {sub, role}.
func (s *Service) Login(ctx context.Context, email, password string) (string, Profile, error) {
	a, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", Profile{}, ErrBadCredentials
	}
	if err != nil {
		return "", Profile{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return "", Profile{}, ErrBadCredentials
	}
	token, err := s.issuer.Issue(auth.Actor{ID: a.ID, Role: a.Role})
	if err != nil {
		return "", Profile{}, err
	}
	return token, a.Profile(), nil
}

// ProfileOf returns the calling actor's own account.
func (s *Service) ProfileOf(ctx context.Context, actor auth.Actor) (Profile, error) {
	a, err := s.store.GetByID(ctx, actor.ID)
	if err != nil {
		return Profile{}, err
	}
	return a.Profile(), nil
}
