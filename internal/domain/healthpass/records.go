package healthpass

import (
	"context"

	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/domain/clinical"
	"github.com/medpass/medpass/internal/domain/documents"
	"github.com/medpass/medpass/internal/domain/identity"
	"github.com/medpass/medpass/internal/domain/lifestyle"
	"github.com/medpass/medpass/internal/domain/medication"
)

// The record stores a pass reads from. The domain services implement these.
type (
	ClinicalRecords interface {
		ListConditions(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*clinical.Condition, error)
		ListAllergies(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*clinical.Allergy, error)
	}
	MedicationRecords interface {
		List(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*medication.Medication, error)
	}
	LifestyleRecords interface {
		Active(ctx context.Context, userID uuid.UUID) (*lifestyle.Lifestyle, error)
	}
	DocumentRecords interface {
		ListConfirmed(ctx context.Context, userID uuid.UUID) ([]*documents.Document, error)
		URL(ctx context.Context, userID, id uuid.UUID) (*documents.SignedURL, error)
	}
	UserDirectory interface {
		Me(ctx context.Context, userID uuid.UUID) (*identity.User, error)
	}
)

// Records bundles the stores. Every field is required.
type Records struct {
	Clinical    ClinicalRecords
	Medications MedicationRecords
	Lifestyle   LifestyleRecords
	Documents   DocumentRecords
	Users       UserDirectory
}

// snapshot is one consistent read of a user's current active records.
type snapshot struct {
	user        *identity.User
	conditions  []*clinical.Condition
	medications []*medication.Medication
	allergies   []*clinical.Allergy
	lifestyle   *lifestyle.Lifestyle
	documents   []*documents.Document
}

// lifestyleRecord returns the lifestyle record if it holds anything worth
// sharing.
func (s *snapshot) lifestyleRecord() *lifestyle.Lifestyle {
	if s.lifestyle == nil || s.lifestyle.IsEmpty() {
		return nil
	}
	return s.lifestyle
}

// entry is a record reduced to what the composer needs.
type entry struct {
	id      uuid.UUID
	summary string
	record  interface{}
}

// entries returns the records of one category in display order.
func (s *snapshot) entries(category string) []entry {
	var out []entry
	switch category {
	case CategoryConditions:
		for _, c := range s.conditions {
			out = append(out, entry{c.ID, c.Summary(), c})
		}
	case CategoryMedications:
		for _, m := range s.medications {
			out = append(out, entry{m.ID, m.Summary(), m})
		}
	case CategoryAllergies:
		for _, a := range s.allergies {
			out = append(out, entry{a.ID, a.Summary(), a})
		}
	case CategoryLifestyle:
		if l := s.lifestyleRecord(); l != nil {
			out = append(out, entry{l.ID, l.Summary(), l})
		}
	case CategoryDocuments:
		for _, d := range s.documents {
			out = append(out, entry{d.ID, d.Summary(), d})
		}
	}
	return out
}

var categories = []string{
	CategoryConditions, CategoryMedications, CategoryAllergies, CategoryLifestyle, CategoryDocuments,
}
