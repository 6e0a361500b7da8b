package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medpass/medpass/internal/platform/apperr"
)

// TokenPair is returned to clients after identity verification or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// TokenIssuer signs HS256 access tokens and manages opaque refresh tokens
// whose SHA-256 hashes live in a SessionStore.
type TokenIssuer struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	sessions   SessionStore
	now        func() time.Time
}

func NewTokenIssuer(key []byte, issuer string, accessTTL, refreshTTL time.Duration, sessions SessionStore) *TokenIssuer {
	return &TokenIssuer{
		key:        key,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		sessions:   sessions,
		now:        time.Now,
	}
}

// Issue creates a new access/refresh pair for userID.
func (i *TokenIssuer) Issue(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		TokenType: tokenTypeAccess,
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	if err := i.sessions.Save(ctx, HashToken(refresh), userID.String(), i.refreshTTL); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Refresh redeems refreshToken once and issues a new pair (rotation).
func (i *TokenIssuer) Refresh(ctx context.Context, refreshToken string) (*TokenPair, uuid.UUID, error) {
	if refreshToken == "" {
		return nil, uuid.Nil, apperr.Required("refreshToken")
	}
	uid, err := i.sessions.Consume(ctx, HashToken(refreshToken))
	if errors.Is(err, ErrSessionNotFound) {
		return nil, uuid.Nil, apperr.Unauthorized("refresh token is invalid or expired")
	}
	if err != nil {
		return nil, uuid.Nil, err
	}
	userID, err := uuid.Parse(uid)
	if err != nil {
		return nil, uuid.Nil, apperr.Unauthorized("refresh token is invalid or expired")
	}
	pair, err := i.Issue(ctx, userID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return pair, userID, nil
}

// Revoke invalidates a refresh token held by userID. Unknown or expired
// tokens are not an error. A token issued to another account is refused.
func (i *TokenIssuer) Revoke(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if refreshToken == "" {
		return apperr.Required("refreshToken")
	}
	hash := HashToken(refreshToken)
	owner, err := i.sessions.Owner(ctx, hash)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner != userID.String() {
		return fmt.Errorf("refresh token belongs to another account: %w", apperr.ErrForbidden)
	}
	return i.sessions.Delete(ctx, hash)
}

// Verify parses an access token issued by this issuer.
func (i *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	return ParseAccessToken(tokenStr, i.key, i.issuer)
}

// HashToken returns the hex SHA-256 of an opaque token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
