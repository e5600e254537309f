package model

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
)

type cipherKey struct{}

// ErrNoCipher is returned by hooks that need to seal or open a secret when
// the session was opened without a cipher.
var ErrNoCipher = errors.New("no cipher configured on database session")

// WithCipher attaches the credentials cipher to a context. Sessions created
// with db.WithContext(ctx) make it available to model hooks.
func WithCipher(ctx context.Context, c encryption.Cipher) context.Context {
	return context.WithValue(ctx, cipherKey{}, c)
}

func cipherForDB(tx *gorm.DB) (encryption.Cipher, error) {
	if tx.Statement == nil || tx.Statement.Context == nil {
		return nil, ErrNoCipher
	}
	c, ok := tx.Statement.Context.Value(cipherKey{}).(encryption.Cipher)
	if !ok || c == nil {
		return nil, ErrNoCipher
	}
	return c, nil
}
