package lifestyle

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetByUser returns the user's row whether or not it is active.
	GetByUser(ctx context.Context, userID uuid.UUID) (*Lifestyle, error)
	// FindOrCreate returns the user's row, inserting an empty one first if
	// none exists. Concurrent callers observe the same row.
	FindOrCreate(ctx context.Context, userID uuid.UUID) (*Lifestyle, error)
	// Upsert writes every field of l and marks the row active.
	Upsert(ctx context.Context, l *Lifestyle) error
	SoftDelete(ctx context.Context, userID uuid.UUID) error
}
