package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpass/medpass/internal/platform/apperr"
)

func newTestIssuer() (*TokenIssuer, *MemorySessionStore) {
	store := NewMemorySessionStore()
	return NewTokenIssuer(testSigningKey, "medpass", 15*time.Minute, time.Hour, store), store
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer, _ := newTestIssuer()
	uid := uuid.New()

	pair, err := issuer.Issue(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, int64(900), pair.ExpiresIn)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := issuer.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uid.String(), claims.Subject)
}

func TestTokenIssuer_RefreshRotates(t *testing.T) {
	issuer, _ := newTestIssuer()
	uid := uuid.New()
	ctx := context.Background()

	first, err := issuer.Issue(ctx, uid)
	require.NoError(t, err)

	second, gotUID, err := issuer.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uid, gotUID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The old refresh token was consumed.
	_, _, err = issuer.Refresh(ctx, first.RefreshToken)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized), "got %v", err)
}

func TestTokenIssuer_Revoke(t *testing.T) {
	issuer, _ := newTestIssuer()
	ctx := context.Background()

	uid := uuid.New()
	pair, err := issuer.Issue(ctx, uid)
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(ctx, uid, pair.RefreshToken))
	require.NoError(t, issuer.Revoke(ctx, uid, pair.RefreshToken), "revoke is idempotent")

	_, _, err = issuer.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTokenIssuer_RevokeOtherAccount(t *testing.T) {
	issuer, store := newTestIssuer()
	ctx := context.Background()

	owner := uuid.New()
	pair, err := issuer.Issue(ctx, owner)
	require.NoError(t, err)

	err = issuer.Revoke(ctx, uuid.New(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := store.Owner(ctx, HashToken(pair.RefreshToken))
	require.NoError(t, err, "session survives a foreign revoke")
	assert.Equal(t, owner.String(), got)

	_, gotUID, err := issuer.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, owner, gotUID)
}

func TestTokenIssuer_RefreshValidation(t *testing.T) {
	issuer, _ := newTestIssuer()
	_, _, err := issuer.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "h", "user", time.Minute))
	now = now.Add(2 * time.Minute)

	_, err := store.Owner(ctx, "h")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Consume(ctx, "h")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
