package healthpass

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists passes. Owner-scoped methods only see active passes.
type Repository interface {
	Create(ctx context.Context, p *HealthPass) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*HealthPass, error)
	// GetForUpdate is GetByID plus a row lock; call it inside a transaction.
	GetForUpdate(ctx context.Context, userID, id uuid.UUID) (*HealthPass, error)
	UpdateToggles(ctx context.Context, p *HealthPass) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*HealthPass, int, error)
	// AccessByCode records one scan in a single statement. A pass whose
	// deadline is before now is flipped to expired instead and returned with
	// that status. Passes that are missing, deleted or already expired are
	// not found.
	AccessByCode(ctx context.Context, code string, now time.Time) (*HealthPass, error)
}

// TxRunner runs fn in a transaction. *db.TxManager implements it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
