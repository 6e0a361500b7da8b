package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpass/medpass/internal/platform/ai"
	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/auth"
)

type mockUserRepo struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*User
	creates  int
	conflict bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.conflict {
		return apperr.Conflict("user already exists")
	}
	u.ID = uuid.New()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByGovernmentID(_ context.Context, govID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.GovernmentID == govID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (m *mockUserRepo) UpdateContact(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return apperr.NotFound("user")
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

type stubReader struct {
	card *ai.IDCard
	err  error
}

func (s stubReader) ExtractIDCard(context.Context, ai.Attachment) (*ai.IDCard, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.card
	return &cp, nil
}

func sampleCard() *ai.IDCard {
	return &ai.IDCard{
		FullName:     "Ayşe Yılmaz",
		GovernmentID: "123 456 789-01",
		BirthDate:    "1985-07-21",
		BirthPlace:   "İzmir",
		MotherName:   "Fatma",
		Gender:       "Female",
	}
}

var photo = ai.Attachment{MediaType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}}

func newTestService(repo UserRepository, reader IDCardReader) *Service {
	issuer := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), "medpass",
		15*time.Minute, time.Hour, auth.NewMemorySessionStore())
	return NewService(repo, reader, issuer, zerolog.Nop())
}

func TestService_VerifyID_NewThenReturning(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestService(repo, stubReader{card: sampleCard()})
	ctx := context.Background()

	first, err := svc.VerifyID(ctx, photo)
	require.NoError(t, err)
	assert.True(t, first.IsNewUser)
	assert.Equal(t, "Ayşe Yılmaz", first.User.FullName)
	assert.NotEmpty(t, first.Token.AccessToken)
	assert.NotEmpty(t, first.Token.RefreshToken)
	assert.Equal(t, int64(900), first.Token.ExpiresIn)
	require.NotNil(t, first.ExtractedData)
	assert.Equal(t, "*******8901", first.ExtractedData.GovernmentID)
	assert.Equal(t, "1985-07-21", first.ExtractedData.BirthDate)

	stored, err := repo.GetByID(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", stored.GovernmentID)
	require.NotNil(t, stored.Gender)
	assert.Equal(t, "female", *stored.Gender)

	card := sampleCard()
	card.GovernmentID = "12345678901"
	svc = newTestService(repo, stubReader{card: card})
	second, err := svc.VerifyID(ctx, photo)
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Nil(t, second.ExtractedData)
	assert.Equal(t, 1, repo.creates)
}

func TestService_VerifyID_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ai.IDCard)
	}{
		{"no government id", func(c *ai.IDCard) { c.GovernmentID = "" }},
		{"no name", func(c *ai.IDCard) { c.FullName = "" }},
		{"no birth date", func(c *ai.IDCard) { c.BirthDate = "" }},
		{"unreadable birth date", func(c *ai.IDCard) { c.BirthDate = "21 July" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := sampleCard()
			tt.mutate(card)
			repo := newMockUserRepo()
			svc := newTestService(repo, stubReader{card: card})

			_, err := svc.VerifyID(context.Background(), photo)
			assert.ErrorIs(t, err, apperr.ErrDocumentProcessing)
			assert.Equal(t, 0, repo.creates)
		})
	}
}

func TestService_VerifyID_ReaderFailure(t *testing.T) {
	cause := errors.New("model timeout")
	svc := newTestService(newMockUserRepo(), stubReader{err: cause})

	_, err := svc.VerifyID(context.Background(), photo)
	assert.ErrorIs(t, err, apperr.ErrDocumentProcessing)
	assert.ErrorIs(t, err, cause)
}

func TestService_VerifyID_RejectsNonImage(t *testing.T) {
	svc := newTestService(newMockUserRepo(), stubReader{card: sampleCard()})

	_, err := svc.VerifyID(context.Background(), ai.Attachment{MediaType: "application/pdf", Data: []byte("%PDF")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.VerifyID(context.Background(), ai.Attachment{MediaType: "image/png"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_RefreshAndLogout(t *testing.T) {
	svc := newTestService(newMockUserRepo(), stubReader{card: sampleCard()})
	ctx := context.Background()
	res, err := svc.VerifyID(ctx, photo)
	require.NoError(t, err)

	pair, err := svc.Refresh(ctx, res.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.Token.RefreshToken, pair.RefreshToken)

	_, err = svc.Refresh(ctx, res.Token.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized, "rotated token cannot be reused")

	require.NoError(t, svc.Logout(ctx, res.User.ID, pair.RefreshToken))
	require.NoError(t, svc.Logout(ctx, res.User.ID, pair.RefreshToken))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestService_LogoutOtherUsersSession(t *testing.T) {
	svc := newTestService(newMockUserRepo(), stubReader{card: sampleCard()})
	ctx := context.Background()
	res, err := svc.VerifyID(ctx, photo)
	require.NoError(t, err)

	err = svc.Logout(ctx, uuid.New(), res.Token.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Refresh(ctx, res.Token.RefreshToken)
	assert.NoError(t, err, "the owner's session is still usable")
}

func TestService_UpdateMe(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestService(repo, stubReader{card: sampleCard()})
	ctx := context.Background()
	res, err := svc.VerifyID(ctx, photo)
	require.NoError(t, err)
	id := res.User.ID

	email, blood := "ayse@example.com", "ab+"
	u, err := svc.UpdateMe(ctx, id, ContactInput{Email: &email, BloodType: &blood})
	require.NoError(t, err)
	assert.Equal(t, "AB+", *u.BloodType)
	assert.Equal(t, "Ayşe Yılmaz", u.FullName)

	bad := "not-an-email"
	_, err = svc.UpdateMe(ctx, id, ContactInput{Email: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	badBlood := "C+"
	_, err = svc.UpdateMe(ctx, id, ContactInput{BloodType: &badBlood})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateMe(ctx, uuid.New(), ContactInput{Email: &email})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
