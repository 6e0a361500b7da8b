package medication

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Medication, error)
	// ExistsActive matches name and dosage case-insensitively.
	ExistsActive(ctx context.Context, userID uuid.UUID, name, dosage string, excludeID uuid.UUID) (bool, error)
}
