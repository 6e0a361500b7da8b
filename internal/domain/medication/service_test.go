package medication

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/platform/apperr"
)

type mockRepo struct {
	mu    sync.Mutex
	store map[uuid.UUID]*Medication
	clock time.Time
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Medication), clock: time.Now()}
}

func (m *mockRepo) Create(_ context.Context, med *Medication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	med.ID = uuid.New()
	med.IsActive = true
	m.clock = m.clock.Add(time.Second)
	med.CreatedAt, med.UpdatedAt = m.clock, m.clock
	cp := *med
	m.store[med.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*Medication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	med, ok := m.store[id]
	if !ok || med.UserID != userID {
		return nil, apperr.NotFound("medication")
	}
	cp := *med
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, med *Medication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *med
	m.store[med.ID] = &cp
	return nil
}

func (m *mockRepo) SoftDelete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	med, ok := m.store[id]
	if !ok || med.UserID != userID {
		return apperr.NotFound("medication")
	}
	med.IsActive = false
	return nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID, activeOnly bool) ([]*Medication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Medication
	for _, med := range m.store {
		if med.UserID == userID && (!activeOnly || med.IsActive) {
			cp := *med
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepo) ExistsActive(_ context.Context, userID uuid.UUID, name, dosage string, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, med := range m.store {
		if med.UserID == userID && med.IsActive && med.ID != excludeID &&
			normalizeKey(med.Name) == normalizeKey(name) && normalizeKey(med.Dosage) == normalizeKey(dosage) {
			return true, nil
		}
	}
	return false, nil
}

func str(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	svc := NewService(newMockRepo())
	m, err := svc.Create(context.Background(), uuid.New(), Input{
		Name:      str("Aspirin"),
		Dosage:    str("100mg"),
		Frequency: str("once daily"),
		StartDate: str("2024-01-01"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Summary() != "Aspirin 100mg, once daily" {
		t.Errorf("unexpected summary %q", m.Summary())
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	tests := []struct {
		name string
		in   Input
	}{
		{"missing name", Input{Dosage: str("10mg")}},
		{"missing dosage", Input{Name: str("Ibuprofen")}},
		{"bad start date", Input{Name: str("Ibuprofen"), Dosage: str("10mg"), StartDate: str("soon")}},
		{"end before start", Input{Name: str("Ibuprofen"), Dosage: str("10mg"), StartDate: str("2024-02-01"), EndDate: str("2024-01-01")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), tt.in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_Create_Duplicate(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.Create(ctx, user, Input{Name: str("Aspirin"), Dosage: str("100mg")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, user, Input{Name: str("aspirin"), Dosage: str("100MG")}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, user, Input{Name: str("Aspirin"), Dosage: str("300mg")}); err != nil {
		t.Fatalf("a different dosage is a different medication: %v", err)
	}

	if err := svc.Delete(ctx, user, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Create(ctx, user, Input{Name: str("Aspirin"), Dosage: str("100mg")}); err != nil {
		t.Fatalf("expected create after soft delete to succeed, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	user := uuid.New()

	_, _ = svc.Create(ctx, user, Input{Name: str("Aspirin"), Dosage: str("100mg")})
	m, _ := svc.Create(ctx, user, Input{Name: str("Aspirin"), Dosage: str("300mg"), StartDate: str("2024-03-01")})

	if _, err := svc.Update(ctx, user, m.ID, Input{Dosage: str("100mg")}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	if _, err := svc.Update(ctx, user, m.ID, Input{EndDate: str("2024-02-01")}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected end date before stored start date to fail, got %v", err)
	}

	updated, err := svc.Update(ctx, user, m.ID, Input{Reason: str("stroke prevention")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Dosage != "300mg" || updated.Reason == nil {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if _, err := svc.Update(ctx, uuid.New(), m.ID, Input{Reason: str("x")}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for another user, got %v", err)
	}
}

func TestService_List(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	user := uuid.New()

	a, _ := svc.Create(ctx, user, Input{Name: str("Aspirin"), Dosage: str("100mg")})
	b, _ := svc.Create(ctx, user, Input{Name: str("Metformin"), Dosage: str("500mg")})
	_ = svc.Delete(ctx, user, a.ID)

	active, _ := svc.List(ctx, user, true)
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("expected only active medication, got %d", len(active))
	}
	all, _ := svc.List(ctx, user, false)
	if len(all) != 2 {
		t.Errorf("expected 2 medications, got %d", len(all))
	}
}
