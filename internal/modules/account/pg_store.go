// README: Account store backed by PostgreSQL.
package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideloop/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, a *Account) error {
	var vehicle []byte
	if a.Vehicle != nil {
		b, err := json.Marshal(a.Vehicle)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		vehicle = b
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (
			account_id, email, name, phone, role, password_hash,
			license, vehicle, created_at
		) VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $9)`,
		string(a.ID), a.Email, a.Name, a.Phone, string(a.Role),
		a.PasswordHash, a.License, vehicle, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, id types.ID) (*Account, error) {
	row := s.db.QueryRow(ctx, `
		SELECT account_id, email, name, phone, role, password_hash,
		       license, vehicle, created_at
		FROM accounts
		WHERE account_id = $1`, string(id),
	)
	return scanAccount(row)
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRow(ctx, `
		SELECT account_id, email, name, phone, role, password_hash,
		       license, vehicle, created_at
		FROM accounts
		WHERE email = lower($1)`, email,
	)
	return scanAccount(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var license sql.NullString
	var vehicle []byte

	err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.Phone, &a.Role, &a.PasswordHash,
		&license, &vehicle, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	a.License = license.String
	if len(vehicle) > 0 {
		var v Vehicle
		if err := json.Unmarshal(vehicle, &v); err == nil {
			a.Vehicle = &v
		}
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
