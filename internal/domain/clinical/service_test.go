package clinical

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medpass/medpass/internal/platform/apperr"
)

// =========== Mock Repositories ===========

type mockConditionRepo struct {
	mu    sync.Mutex
	store map[uuid.UUID]*Condition
	clock time.Time
}

func newMockConditionRepo() *mockConditionRepo {
	return &mockConditionRepo{store: make(map[uuid.UUID]*Condition), clock: time.Now()}
}

func (m *mockConditionRepo) Create(_ context.Context, c *Condition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	c.IsActive = true
	m.clock = m.clock.Add(time.Second)
	c.CreatedAt, c.UpdatedAt = m.clock, m.clock
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *mockConditionRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*Condition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok || c.UserID != userID {
		return nil, apperr.NotFound("condition")
	}
	cp := *c
	return &cp, nil
}

func (m *mockConditionRepo) Update(_ context.Context, c *Condition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[c.ID]; !ok {
		return apperr.NotFound("condition")
	}
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *mockConditionRepo) SoftDelete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok || c.UserID != userID {
		return apperr.NotFound("condition")
	}
	c.IsActive = false
	return nil
}

func (m *mockConditionRepo) ListByUser(_ context.Context, userID uuid.UUID, activeOnly bool) ([]*Condition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Condition
	for _, c := range m.store {
		if c.UserID == userID && (!activeOnly || c.IsActive) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockConditionRepo) ExistsActive(_ context.Context, userID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.store {
		if c.UserID == userID && c.IsActive && c.ID != excludeID && normalizeKey(c.Name) == normalizeKey(name) {
			return true, nil
		}
	}
	return false, nil
}

type mockAllergyRepo struct {
	mu    sync.Mutex
	store map[uuid.UUID]*Allergy
	clock time.Time
}

func newMockAllergyRepo() *mockAllergyRepo {
	return &mockAllergyRepo{store: make(map[uuid.UUID]*Allergy), clock: time.Now()}
}

func (m *mockAllergyRepo) Create(_ context.Context, a *Allergy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.IsActive = true
	m.clock = m.clock.Add(time.Second)
	a.CreatedAt, a.UpdatedAt = m.clock, m.clock
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *mockAllergyRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*Allergy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok || a.UserID != userID {
		return nil, apperr.NotFound("allergy")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAllergyRepo) Update(_ context.Context, a *Allergy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *mockAllergyRepo) SoftDelete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.store[id]
	if !ok || a.UserID != userID {
		return apperr.NotFound("allergy")
	}
	a.IsActive = false
	return nil
}

func (m *mockAllergyRepo) ListByUser(_ context.Context, userID uuid.UUID, activeOnly bool) ([]*Allergy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Allergy
	for _, a := range m.store {
		if a.UserID == userID && (!activeOnly || a.IsActive) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockAllergyRepo) ExistsActive(_ context.Context, userID uuid.UUID, allergen string, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.store {
		if a.UserID == userID && a.IsActive && a.ID != excludeID && normalizeKey(a.Allergen) == normalizeKey(allergen) {
			return true, nil
		}
	}
	return false, nil
}

type stubClassifier struct {
	result string
	err    error
	calls  int
}

func (s *stubClassifier) ClassifyAllergen(context.Context, string) (string, error) {
	s.calls++
	return s.result, s.err
}

func newTestService() *Service {
	return NewService(newMockConditionRepo(), newMockAllergyRepo(), &stubClassifier{result: "food"}, zerolog.Nop(), nil)
}

func str(s string) *string { return &s }

// =========== Condition Service Tests ===========

func TestService_CreateCondition(t *testing.T) {
	svc := newTestService()
	user := uuid.New()

	c, err := svc.CreateCondition(context.Background(), user, ConditionInput{
		Name:          str("  Hypertension "),
		Severity:      str("Moderate"),
		DiagnosedDate: str("2019-05-01"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "Hypertension" {
		t.Errorf("expected trimmed name, got %q", c.Name)
	}
	if c.Status != "active" {
		t.Errorf("expected default status active, got %s", c.Status)
	}
	if c.Severity == nil || *c.Severity != "moderate" {
		t.Errorf("expected lower-cased severity, got %v", c.Severity)
	}
	if c.DiagnosedDate == nil || c.DiagnosedDate.Year() != 2019 {
		t.Errorf("expected diagnosed date, got %v", c.DiagnosedDate)
	}
}

func TestService_CreateCondition_Validation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name string
		in   ConditionInput
	}{
		{"missing name", ConditionInput{}},
		{"blank name", ConditionInput{Name: str("   ")}},
		{"bad status", ConditionInput{Name: str("Asthma"), Status: str("cured")}},
		{"bad severity", ConditionInput{Name: str("Asthma"), Severity: str("extreme")}},
		{"bad date", ConditionInput{Name: str("Asthma"), DiagnosedDate: str("yesterday")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCondition(context.Background(), uuid.New(), tt.in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_CreateCondition_Duplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.CreateCondition(ctx, user, ConditionInput{Name: str("Asthma")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateCondition(ctx, user, ConditionInput{Name: str("ASTHMA")}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.CreateCondition(ctx, uuid.New(), ConditionInput{Name: str("Asthma")}); err != nil {
		t.Fatalf("other users may record the same condition: %v", err)
	}

	if err := svc.DeleteCondition(ctx, user, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.CreateCondition(ctx, user, ConditionInput{Name: str("asthma")}); err != nil {
		t.Fatalf("expected create after soft delete to succeed, got %v", err)
	}
}

func TestService_UpdateCondition(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user := uuid.New()

	a, _ := svc.CreateCondition(ctx, user, ConditionInput{Name: str("Asthma")})
	b, _ := svc.CreateCondition(ctx, user, ConditionInput{Name: str("Migraine"), Notes: str("weekly")})

	if _, err := svc.UpdateCondition(ctx, user, b.ID, ConditionInput{Name: str("asthma")}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict renaming onto an existing condition, got %v", err)
	}

	updated, err := svc.UpdateCondition(ctx, user, b.ID, ConditionInput{Status: str("managed")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != "managed" || updated.Name != "Migraine" || updated.Notes == nil {
		t.Errorf("partial update changed untouched fields: %+v", updated)
	}

	if _, err := svc.UpdateCondition(ctx, user, a.ID, ConditionInput{Name: str("ASTHMA")}); err != nil {
		t.Errorf("changing only the case of a name is not a duplicate: %v", err)
	}
}

func TestService_ConditionOwnership(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	c, _ := svc.CreateCondition(ctx, owner, ConditionInput{Name: str("Asthma")})
	if _, err := svc.GetCondition(ctx, uuid.New(), c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for another user, got %v", err)
	}
	if err := svc.DeleteCondition(ctx, uuid.New(), c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found deleting another user's record, got %v", err)
	}
}

func TestService_ListConditions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user := uuid.New()

	first, _ := svc.CreateCondition(ctx, user, ConditionInput{Name: str("Asthma")})
	second, _ := svc.CreateCondition(ctx, user, ConditionInput{Name: str("Migraine")})
	_ = svc.DeleteCondition(ctx, user, first.ID)
	if err := svc.DeleteCondition(ctx, user, first.ID); err != nil {
		t.Errorf("expected repeated delete to succeed, got %v", err)
	}

	active, _ := svc.ListConditions(ctx, user, true)
	if len(active) != 1 || active[0].ID != second.ID {
		t.Errorf("expected only the active condition, got %d", len(active))
	}
	all, _ := svc.ListConditions(ctx, user, false)
	if len(all) != 2 || all[0].ID != second.ID {
		t.Errorf("expected both conditions newest first, got %d", len(all))
	}
}

// =========== Allergy Service Tests ===========

func TestService_CreateAllergy_Classifies(t *testing.T) {
	cls := &stubClassifier{result: "food"}
	svc := NewService(newMockConditionRepo(), newMockAllergyRepo(), cls, zerolog.Nop(), nil)

	a, err := svc.CreateAllergy(context.Background(), uuid.New(), AllergyInput{Allergen: str("Peanut")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.AllergyType != "food" || cls.calls != 1 {
		t.Errorf("expected classified type food, got %s (calls %d)", a.AllergyType, cls.calls)
	}

	b, _ := svc.CreateAllergy(context.Background(), uuid.New(), AllergyInput{Allergen: str("Penicillin"), AllergyType: str("drug")})
	if b.AllergyType != "drug" || cls.calls != 1 {
		t.Errorf("expected explicit type to skip classification, got %s (calls %d)", b.AllergyType, cls.calls)
	}
}

func TestService_CreateAllergy_ClassifierFailure(t *testing.T) {
	tests := []struct {
		name string
		cls  AllergenClassifier
	}{
		{"error", &stubClassifier{err: errors.New("model unavailable")}},
		{"unknown type", &stubClassifier{result: "mineral"}},
		{"no classifier", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newMockConditionRepo(), newMockAllergyRepo(), tt.cls, zerolog.Nop(), nil)
			a, err := svc.CreateAllergy(context.Background(), uuid.New(), AllergyInput{Allergen: str("Dust")})
			if err != nil {
				t.Fatalf("classification failures must not block creation: %v", err)
			}
			if a.AllergyType != "other" {
				t.Errorf("expected fallback type other, got %s", a.AllergyType)
			}
		})
	}
}

func TestService_CreateAllergy_Duplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.CreateAllergy(ctx, user, AllergyInput{Allergen: str("Peanut")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateAllergy(ctx, user, AllergyInput{Allergen: str(" peanut ")}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	_ = svc.DeleteAllergy(ctx, user, first.ID)
	if _, err := svc.CreateAllergy(ctx, user, AllergyInput{Allergen: str("PEANUT")}); err != nil {
		t.Fatalf("expected create after soft delete to succeed, got %v", err)
	}
}

func TestService_AllergyValidation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name string
		in   AllergyInput
	}{
		{"missing allergen", AllergyInput{}},
		{"bad type", AllergyInput{Allergen: str("Bees"), AllergyType: str("bugs")}},
		{"bad severity", AllergyInput{Allergen: str("Bees"), Severity: str("deadly")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAllergy(context.Background(), uuid.New(), tt.in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	a, err := svc.CreateAllergy(context.Background(), uuid.New(), AllergyInput{Allergen: str("Bees"), Severity: str("LIFE_THREATENING")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *a.Severity != "life_threatening" {
		t.Errorf("expected normalized severity, got %s", *a.Severity)
	}
}

func TestService_UpdateAllergy(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user := uuid.New()

	_, _ = svc.CreateAllergy(ctx, user, AllergyInput{Allergen: str("Peanut")})
	b, _ := svc.CreateAllergy(ctx, user, AllergyInput{Allergen: str("Latex"), AllergyType: str("latex")})

	if _, err := svc.UpdateAllergy(ctx, user, b.ID, AllergyInput{Allergen: str("peanut")}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	updated, err := svc.UpdateAllergy(ctx, user, b.ID, AllergyInput{Reaction: str("hives")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Reaction == nil || *updated.Reaction != "hives" || updated.AllergyType != "latex" {
		t.Errorf("unexpected update result: %+v", updated)
	}
}

func TestSummaries(t *testing.T) {
	c := &Condition{Name: "Hypertension", Status: "chronic", Severity: str("moderate")}
	if got := c.Summary(); got != "Hypertension (chronic, moderate)" {
		t.Errorf("Condition.Summary() = %q", got)
	}
	a := &Allergy{Allergen: "Peanut", AllergyType: "food", Severity: str("life_threatening"), Reaction: str("anaphylaxis")}
	if got := a.Summary(); got != "food allergy to Peanut, life-threatening, reaction: anaphylaxis" {
		t.Errorf("Allergy.Summary() = %q", got)
	}
}
