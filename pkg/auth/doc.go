// Package auth issues and verifies API tokens and hashes user passwords.
//
// Tokens are HS256 JWTs carrying the user id as subject and a random jti.
// The jti is recorded as a model.AuthToken so that a token can be revoked on
// logout before it expires.
//
//	issuer := auth.NewTokenIssuer(secret, cfg.TokenLifetime())
//	token, record, err := issuer.Issue(user)
//	claims, err := issuer.Parse(token)
package auth
