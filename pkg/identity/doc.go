// Package identity carries the authenticated user of a request.
//
// An Identity is built from verified token claims by the token auth
// middleware and stored in the request context:
//
//	id, err := identity.FromClaims(claims)
//	id.WithRemoteIP(clientIP).WithToken(raw)
//	ctx = identity.Set(ctx, id)
//
//	// in a handler
//	id, ok := identity.Get(r.Context())
//
// Handlers read the user id for ownership checks and ProfileSlug to scope
// stored credentials.
package identity
