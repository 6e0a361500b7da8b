package lifestyle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpass/medpass/internal/platform/apperr"
)

type mockRepo struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*Lifestyle
}

func newMockRepo() *mockRepo {
	return &mockRepo{byUser: make(map[uuid.UUID]*Lifestyle)}
}

func (m *mockRepo) GetByUser(_ context.Context, userID uuid.UUID) (*Lifestyle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byUser[userID]
	if !ok {
		return nil, apperr.NotFound("lifestyle")
	}
	cp := *l
	return &cp, nil
}

func (m *mockRepo) FindOrCreate(ctx context.Context, userID uuid.UUID) (*Lifestyle, error) {
	m.mu.Lock()
	if _, ok := m.byUser[userID]; !ok {
		now := time.Now()
		m.byUser[userID] = &Lifestyle{ID: uuid.New(), UserID: userID, IsActive: true, CreatedAt: now, UpdatedAt: now}
	}
	m.mu.Unlock()
	return m.GetByUser(ctx, userID)
}

func (m *mockRepo) Upsert(_ context.Context, l *Lifestyle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byUser[l.UserID]; ok {
		l.ID = existing.ID
		l.CreatedAt = existing.CreatedAt
	} else if l.ID == uuid.Nil {
		l.ID = uuid.New()
		l.CreatedAt = time.Now()
	}
	l.IsActive = true
	l.UpdatedAt = time.Now()
	cp := *l
	m.byUser[l.UserID] = &cp
	return nil
}

func (m *mockRepo) SoftDelete(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byUser[userID]
	if !ok {
		return apperr.NotFound("lifestyle")
	}
	l.IsActive = false
	return nil
}

func str(s string) *string { return &s }

func TestService_GetCreatesOnce(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.True(t, first.IsEmpty())

	second, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestService_UpsertMerges(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	user := uuid.New()

	sleep := 7.5
	l, err := svc.Upsert(ctx, user, Input{SmokingStatus: str("Former"), SleepHours: &sleep})
	require.NoError(t, err)
	assert.Equal(t, "former", *l.SmokingStatus)

	l, err = svc.Upsert(ctx, user, Input{StressLevel: str("high")})
	require.NoError(t, err)
	require.NotNil(t, l.SmokingStatus)
	assert.Equal(t, "smoking: former; sleep: 7.5h; stress: high", l.Summary())

	l, err = svc.Upsert(ctx, user, Input{SmokingStatus: str("")})
	require.NoError(t, err)
	assert.Nil(t, l.SmokingStatus)
}

func TestService_UpsertValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, uuid.New(), Input{AlcoholUse: str("daily binge")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	bad := 25.0
	_, err = svc.Upsert(ctx, uuid.New(), Input{SleepHours: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_DeleteThenUpsertReactivates(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	user := uuid.New()

	original, err := svc.Upsert(ctx, user, Input{SmokingStatus: str("current"), DietType: str("vegan")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, user))

	active, err := svc.Active(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, active)

	l, err := svc.Upsert(ctx, user, Input{ExerciseFrequency: str("daily")})
	require.NoError(t, err)
	assert.True(t, l.IsActive)
	assert.Equal(t, original.ID, l.ID)
	assert.Nil(t, l.SmokingStatus, "values from the deleted record must not come back")

	active, err = svc.Active(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "exercise: daily", active.Summary())
}

func TestService_DeleteMissing(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
