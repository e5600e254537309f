package identity

import (
	"context"
	"net"
	"time"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated user of a request.
// It combines token claims with request-specific context.
type Identity struct {
	// Token claims
	UserID    uint
	Username  string
	Staff     bool
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Request context
	RemoteIP net.IP
	Token    string

	Claims *auth.Claims
}

// FromClaims creates an Identity from verified token claims.
func FromClaims(c *auth.Claims) (*Identity, error) {
	userID, err := c.UserID()
	if err != nil {
		return nil, err
	}
	id := &Identity{
		UserID:   userID,
		Username: c.Username,
		Staff:    c.Staff,
		TokenID:  c.ID,
		Claims:   c,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id, nil
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// WithToken keeps the raw token the identity was built from.
func (i *Identity) WithToken(token string) *Identity {
	i.Token = token
	return i
}

// WithUser refreshes the claims-derived fields from the stored user, so a
// staff flag revoked after the token was issued takes effect.
func (i *Identity) WithUser(u *model.User) *Identity {
	i.UserID = u.ID
	i.Username = u.Username
	i.Staff = u.IsStaff
	return i
}

// ProfileSlug is the slug of the user's profile, which owns stored
// credentials.
func (i *Identity) ProfileSlug() string {
	return model.Slugify(i.Username)
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
