package lifestyle

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/platform/apperr"
)

var (
	validSmoking  = map[string]bool{"never": true, "former": true, "occasional": true, "current": true}
	validAlcohol  = map[string]bool{"none": true, "occasional": true, "moderate": true, "heavy": true}
	validExercise = map[string]bool{"none": true, "rarely": true, "weekly": true, "several_per_week": true, "daily": true}
	validDiet     = map[string]bool{
		"omnivore": true, "vegetarian": true, "vegan": true, "pescatarian": true,
		"keto": true, "gluten_free": true, "diabetic": true, "other": true,
	}
	validStress = map[string]bool{"low": true, "moderate": true, "high": true}
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the user's lifestyle record, creating an empty one on first use.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Lifestyle, error) {
	return s.repo.FindOrCreate(ctx, userID)
}

// Active returns the user's lifestyle record, or nil when there is none or it
// has been deleted.
func (s *Service) Active(ctx context.Context, userID uuid.UUID) (*Lifestyle, error) {
	l, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !l.IsActive {
		return nil, nil
	}
	return l, nil
}

// Upsert merges in into the user's record. A deleted record is reactivated
// with only the values supplied in this call.
func (s *Service) Upsert(ctx context.Context, userID uuid.UUID, in Input) (*Lifestyle, error) {
	l, err := s.repo.GetByUser(ctx, userID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		l = &Lifestyle{UserID: userID}
	case err != nil:
		return nil, err
	case !l.IsActive:
		l = &Lifestyle{ID: l.ID, UserID: userID}
	}

	if err := applyInput(l, in); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.repo.SoftDelete(ctx, userID)
}

func applyInput(l *Lifestyle, in Input) error {
	fields := []struct {
		name    string
		in      *string
		dst     **string
		allowed map[string]bool
	}{
		{"smokingStatus", in.SmokingStatus, &l.SmokingStatus, validSmoking},
		{"alcoholUse", in.AlcoholUse, &l.AlcoholUse, validAlcohol},
		{"exerciseFrequency", in.ExerciseFrequency, &l.ExerciseFrequency, validExercise},
		{"dietType", in.DietType, &l.DietType, validDiet},
		{"stressLevel", in.StressLevel, &l.StressLevel, validStress},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(*f.in))
		if v == "" {
			*f.dst = nil
			continue
		}
		if !f.allowed[v] {
			return apperr.Validation(f.name, "invalid value "+v)
		}
		*f.dst = &v
	}

	if in.SleepHours != nil {
		if *in.SleepHours < 0 || *in.SleepHours > 24 {
			return apperr.Validation("sleepHours", "must be between 0 and 24")
		}
		h := *in.SleepHours
		l.SleepHours = &h
	}
	if in.Notes != nil {
		n := strings.TrimSpace(*in.Notes)
		if n == "" {
			l.Notes = nil
		} else {
			l.Notes = &n
		}
	}
	return nil
}
