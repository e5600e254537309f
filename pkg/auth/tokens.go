package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
)

// TokenSecretEnv overrides the token signing secret.
const TokenSecretEnv = "CLOUDLAUNCH_TOKEN_SECRET"

const issuerName = "cloudlaunch"

var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims of an API token. Subject holds the user id.
type Claims struct {
	Username string `json:"username"`
	Staff    bool   `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	return uint(id), nil
}

// TokenIssuer signs and verifies API tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for u and returns the record to persist for it.
func (i *TokenIssuer) Issue(u *model.User) (string, *model.AuthToken, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := &Claims{
		Username: u.Username,
		Staff:    u.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuerName,
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, &model.AuthToken{
		JTI:     claims.ID,
		UserID:  u.ID,
		Created: now,
		Expires: expires,
	}, nil
}

// Parse verifies the signature and expiry of a token and returns its
// claims. Every failure is reported as ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SecretFromEnv returns the token secret from CLOUDLAUNCH_TOKEN_SECRET. When
// unset, a secret is derived from the data key so that a single key is
// enough to run the server.
func SecretFromEnv(dataKey []byte) ([]byte, error) {
	if s := os.Getenv(TokenSecretEnv); s != "" {
		if decoded, err := base64.StdEncoding.DecodeString(s); err == nil && len(decoded) >= 32 {
			return decoded, nil
		}
		return []byte(s), nil
	}
	if len(dataKey) == 0 {
		return nil, fmt.Errorf("no %s set and no data key to derive one from", TokenSecretEnv)
	}
	sum := sha256.Sum256(append([]byte("cloudlaunch-token:"), dataKey...))
	return sum[:], nil
}
