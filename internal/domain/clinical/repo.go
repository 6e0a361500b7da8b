package clinical

import (
	"context"

	"github.com/google/uuid"
)

// Every method is scoped to the owning user; a record owned by someone else
// is reported as not found.
type ConditionRepository interface {
	Create(ctx context.Context, c *Condition) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Condition, error)
	Update(ctx context.Context, c *Condition) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Condition, error)
	// ExistsActive reports whether another active condition has the same
	// normalized name. excludeID is ignored when uuid.Nil.
	ExistsActive(ctx context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
}

type AllergyRepository interface {
	Create(ctx context.Context, a *Allergy) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Allergy, error)
	Update(ctx context.Context, a *Allergy) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Allergy, error)
	ExistsActive(ctx context.Context, userID uuid.UUID, allergen string, excludeID uuid.UUID) (bool, error)
}
