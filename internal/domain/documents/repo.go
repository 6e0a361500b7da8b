package documents

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Document, error)
	// Confirm stores the user-approved metadata and sets is_confirmed.
	Confirm(ctx context.Context, d *Document) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool, limit, offset int) ([]*Document, int, error)
	// ListConfirmed returns the active, confirmed documents of a user.
	ListConfirmed(ctx context.Context, userID uuid.UUID) ([]*Document, error)
	ExistsActiveHash(ctx context.Context, userID uuid.UUID, contentHash string) (bool, error)
}
