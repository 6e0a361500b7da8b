package clinical

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/metrics"
	"github.com/medpass/medpass/pkg/civil"
)

// AllergenClassifier assigns an allergy type to a free-text allergen.
type AllergenClassifier interface {
	ClassifyAllergen(ctx context.Context, allergen string) (string, error)
}

type Service struct {
	conditions ConditionRepository
	allergies  AllergyRepository
	classifier AllergenClassifier
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

func NewService(cond ConditionRepository, allergy AllergyRepository, classifier AllergenClassifier, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		conditions: cond,
		allergies:  allergy,
		classifier: classifier,
		logger:     logger.With().Str("component", "clinical").Logger(),
		metrics:    m,
	}
}

const maxNameLen = 200

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

func validateEnum(field string, value *string, allowed map[string]bool) error {
	if value != nil && !allowed[*value] {
		return apperr.Validation(field, "invalid value "+*value)
	}
	return nil
}

// -- Condition --

var validConditionStatuses = map[string]bool{
	"active": true, "resolved": true, "chronic": true, "managed": true,
}

var validConditionSeverities = map[string]bool{
	"mild": true, "moderate": true, "severe": true,
}

// applyConditionInput merges in into c. On create every required field must
// be present; on update nil fields keep their current value.
func applyConditionInput(c *Condition, in ConditionInput, create bool) error {
	if in.Name != nil || create {
		name := trimmed(in.Name)
		if name == nil {
			return apperr.Required("name")
		}
		if len(*name) > maxNameLen {
			return apperr.Validation("name", "is too long")
		}
		c.Name = *name
	}
	if s := trimmed(in.Status); s != nil {
		c.Status = strings.ToLower(*s)
	} else if create {
		c.Status = "active"
	}
	if !validConditionStatuses[c.Status] {
		return apperr.Validation("status", "invalid value "+c.Status)
	}
	if in.Severity != nil {
		c.Severity = trimmed(in.Severity)
		if c.Severity != nil {
			lower := strings.ToLower(*c.Severity)
			c.Severity = &lower
		}
		if err := validateEnum("severity", c.Severity, validConditionSeverities); err != nil {
			return err
		}
	}
	if in.DiagnosedDate != nil {
		d, err := civil.ParseDate("diagnosedDate", in.DiagnosedDate)
		if err != nil {
			return err
		}
		c.DiagnosedDate = d
	}
	if in.Notes != nil {
		c.Notes = trimmed(in.Notes)
	}
	return nil
}

func (s *Service) CreateCondition(ctx context.Context, userID uuid.UUID, in ConditionInput) (*Condition, error) {
	c := &Condition{UserID: userID}
	if err := applyConditionInput(c, in, true); err != nil {
		return nil, err
	}
	dup, err := s.conditions.ExistsActive(ctx, userID, c.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, apperr.Conflict("condition " + c.Name + " is already recorded")
	}
	if err := s.conditions.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCondition(ctx context.Context, userID, id uuid.UUID) (*Condition, error) {
	return s.conditions.GetByID(ctx, userID, id)
}

func (s *Service) ListConditions(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Condition, error) {
	return s.conditions.ListByUser(ctx, userID, activeOnly)
}

func (s *Service) UpdateCondition(ctx context.Context, userID, id uuid.UUID, in ConditionInput) (*Condition, error) {
	c, err := s.conditions.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	oldKey := normalizeKey(c.Name)
	if err := applyConditionInput(c, in, false); err != nil {
		return nil, err
	}
	if c.IsActive && normalizeKey(c.Name) != oldKey {
		dup, err := s.conditions.ExistsActive(ctx, userID, c.Name, c.ID)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, apperr.Conflict("condition " + c.Name + " is already recorded")
		}
	}
	if err := s.conditions.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCondition(ctx context.Context, userID, id uuid.UUID) error {
	return s.conditions.SoftDelete(ctx, userID, id)
}

// -- Allergy --

var validAllergyTypes = map[string]bool{
	"food": true, "drug": true, "environmental": true,
	"insect": true, "latex": true, "other": true,
}

var validAllergySeverities = map[string]bool{
	"mild": true, "moderate": true, "severe": true, "life_threatening": true,
}

func applyAllergyInput(a *Allergy, in AllergyInput, create bool) error {
	if in.Allergen != nil || create {
		allergen := trimmed(in.Allergen)
		if allergen == nil {
			return apperr.Required("allergen")
		}
		if len(*allergen) > maxNameLen {
			return apperr.Validation("allergen", "is too long")
		}
		a.Allergen = *allergen
	}
	if t := trimmed(in.AllergyType); t != nil {
		a.AllergyType = strings.ToLower(*t)
		if !validAllergyTypes[a.AllergyType] {
			return apperr.Validation("allergyType", "invalid value "+a.AllergyType)
		}
	}
	if in.Severity != nil {
		a.Severity = trimmed(in.Severity)
		if a.Severity != nil {
			lower := strings.ToLower(*a.Severity)
			a.Severity = &lower
		}
		if err := validateEnum("severity", a.Severity, validAllergySeverities); err != nil {
			return err
		}
	}
	if in.Reaction != nil {
		a.Reaction = trimmed(in.Reaction)
	}
	if in.Notes != nil {
		a.Notes = trimmed(in.Notes)
	}
	return nil
}

// classify asks the model for an allergy type. Failures never block the
// caller; the allergy is filed as "other".
func (s *Service) classify(ctx context.Context, allergen string) string {
	if s.classifier == nil {
		return "other"
	}
	t, err := s.classifier.ClassifyAllergen(ctx, allergen)
	if err == nil && validAllergyTypes[t] {
		return t
	}
	s.logger.Warn().Err(err).Msg("allergen classification failed, using other")
	if s.metrics != nil {
		s.metrics.AIFallbacks.WithLabelValues("classify_allergen").Inc()
	}
	return "other"
}

func (s *Service) CreateAllergy(ctx context.Context, userID uuid.UUID, in AllergyInput) (*Allergy, error) {
	a := &Allergy{UserID: userID}
	if err := applyAllergyInput(a, in, true); err != nil {
		return nil, err
	}
	dup, err := s.allergies.ExistsActive(ctx, userID, a.Allergen, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, apperr.Conflict("allergy to " + a.Allergen + " is already recorded")
	}
	if a.AllergyType == "" {
		a.AllergyType = s.classify(ctx, a.Allergen)
	}
	if err := s.allergies.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAllergy(ctx context.Context, userID, id uuid.UUID) (*Allergy, error) {
	return s.allergies.GetByID(ctx, userID, id)
}

func (s *Service) ListAllergies(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*Allergy, error) {
	return s.allergies.ListByUser(ctx, userID, activeOnly)
}

func (s *Service) UpdateAllergy(ctx context.Context, userID, id uuid.UUID, in AllergyInput) (*Allergy, error) {
	a, err := s.allergies.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	oldKey := normalizeKey(a.Allergen)
	if err := applyAllergyInput(a, in, false); err != nil {
		return nil, err
	}
	if a.IsActive && normalizeKey(a.Allergen) != oldKey {
		dup, err := s.allergies.ExistsActive(ctx, userID, a.Allergen, a.ID)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, apperr.Conflict("allergy to " + a.Allergen + " is already recorded")
		}
	}
	if err := s.allergies.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAllergy(ctx context.Context, userID, id uuid.UUID) error {
	return s.allergies.SoftDelete(ctx, userID, id)
}
