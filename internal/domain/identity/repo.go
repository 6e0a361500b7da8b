package identity

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	// Create stores u, encrypting u.GovernmentID on the way in.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByGovernmentID finds a user by the blind index of governmentID.
	GetByGovernmentID(ctx context.Context, governmentID string) (*User, error)
	UpdateContact(ctx context.Context, u *User) error
}

// FieldProtector encrypts PHI columns and derives their lookup hashes.
type FieldProtector interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	BlindIndex(value string) string
}
