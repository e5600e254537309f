package identity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
)

func TestFromClaims(t *testing.T) {
	issued := time.Now().Add(-time.Minute).Truncate(time.Second)
	claims := &auth.Claims{
		Username: "Alice Smith",
		Staff:    true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			Subject:   "7",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	}

	id, err := FromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id.UserID)
	assert.Equal(t, "Alice Smith", id.Username)
	assert.True(t, id.Staff)
	assert.Equal(t, "jti-1", id.TokenID)
	assert.Equal(t, issued, id.IssuedAt)
	assert.Equal(t, issued.Add(time.Hour), id.ExpiresAt)
	assert.Equal(t, "alice-smith", id.ProfileSlug())
}

func TestFromClaims_BadSubject(t *testing.T) {
	_, err := FromClaims(&auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "nope"}})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestIdentity_WithMethods(t *testing.T) {
	id := &Identity{UserID: 1, Username: "alice", Staff: true}

	ip := net.ParseIP("192.168.1.100")
	id.WithRemoteIP(ip).
		WithToken("raw").
		WithUser(&model.User{ID: 1, Username: "alice", IsStaff: false})

	assert.Equal(t, ip, id.RemoteIP)
	assert.Equal(t, "raw", id.Token)
	assert.False(t, id.Staff)
}

func TestContextGetSet(t *testing.T) {
	ctx := context.Background()

	// Initially no identity
	id, ok := Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, id)

	expected := &Identity{UserID: 3, Username: "alice"}
	ctx = Set(ctx, expected)

	id, ok = Get(ctx)
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, expected.UserID, id.UserID)
	assert.Equal(t, expected.Username, id.Username)
}
