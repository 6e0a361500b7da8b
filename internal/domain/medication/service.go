package medication

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/pkg/civil"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const maxFieldLen = 200

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func requiredField(field string, p *string) (string, error) {
	v := trimmed(p)
	if v == nil {
		return "", apperr.Required(field)
	}
	if len(*v) > maxFieldLen {
		return "", apperr.Validation(field, "is too long")
	}
	return *v, nil
}

func applyInput(m *Medication, in Input, create bool) error {
	var err error
	if in.Name != nil || create {
		if m.Name, err = requiredField("name", in.Name); err != nil {
			return err
		}
	}
	if in.Dosage != nil || create {
		if m.Dosage, err = requiredField("dosage", in.Dosage); err != nil {
			return err
		}
	}
	if in.Frequency != nil {
		m.Frequency = trimmed(in.Frequency)
	}
	if in.StartDate != nil {
		if m.StartDate, err = civil.ParseDate("startDate", in.StartDate); err != nil {
			return err
		}
	}
	if in.EndDate != nil {
		if m.EndDate, err = civil.ParseDate("endDate", in.EndDate); err != nil {
			return err
		}
	}
	if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
		return apperr.Validation("endDate", "must not be before startDate")
	}
	if in.PrescribedBy != nil {
		m.PrescribedBy = trimmed(in.PrescribedBy)
	}
	if in.Reason != nil {
		m.Reason = trimmed(in.Reason)
	}
	if in.Notes != nil {
		m.Notes = trimmed(in.Notes)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (*Medication, error) {
	m := &Medication{UserID: userID}
	if err := applyInput(m, in, true); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, m, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) checkDuplicate(ctx context.Context, m *Medication, excludeID uuid.UUID) error {
	dup, err := s.repo.ExistsActive(ctx, m.UserID, m.Name, m.Dosage, excludeID)
	if err != nil {
		return err
	}
	if dup {
		return apperr.Conflict("medication " + m.Name + " " + m.Dosage + " is already recorded")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Medication, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Medication, error) {
	return s.repo.ListByUser(ctx, userID, activeOnly)
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in Input) (*Medication, error) {
	m, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	oldName, oldDosage := normalizeKey(m.Name), normalizeKey(m.Dosage)
	if err := applyInput(m, in, false); err != nil {
		return nil, err
	}
	if m.IsActive && (normalizeKey(m.Name) != oldName || normalizeKey(m.Dosage) != oldDosage) {
		if err := s.checkDuplicate(ctx, m, m.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, userID, id)
}
