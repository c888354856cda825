package service

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenKind  = "access"
	refreshTokenKind = "refresh"
)

type tokenClaims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int64
	RefreshExpiresIn int64
}

// TokenIssuer signs and verifies both token kinds. Each kind has its own key
// and carries a "typ" claim, so one can never be accepted as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (t *TokenIssuer) AccessTTL() time.Duration  { return t.accessTTL }
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// Issue mints a fresh access/refresh pair for userID. Nothing is persisted here.
func (t *TokenIssuer) Issue(userID int64) (*TokenPair, error) {
	access, err := t.sign(userID, accessTokenKind, t.accessSecret, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(userID, refreshTokenKind, t.refreshSecret, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  int64(t.accessTTL.Seconds()),
		RefreshExpiresIn: int64(t.refreshTTL.Seconds()),
	}, nil
}

func (t *TokenIssuer) ParseAccessToken(tokenStr string) (int64, error) {
	return t.parse(tokenStr, accessTokenKind, t.accessSecret)
}

func (t *TokenIssuer) ParseRefreshToken(tokenStr string) (int64, error) {
	return t.parse(tokenStr, refreshTokenKind, t.refreshSecret)
}

func (t *TokenIssuer) sign(userID int64, kind string, secret []byte, ttl time.Duration) (string, error) {
	now := t.now()
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parse checks the signature before the expiry, and reports an expired but
// otherwise valid token as ErrTokenExpired.
func (t *TokenIssuer) parse(tokenStr, kind string, secret []byte) (int64, error) {
	if tokenStr == "" {
		return 0, ErrMissingToken
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}
	if !token.Valid || claims.Kind != kind {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
