package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Open(t *testing.T) {
	r := NewRegistry()
	var gotSpec Spec
	var gotCreds Credentials
	r.Register("test", func(ctx context.Context, spec Spec, creds Credentials) (Provider, error) {
		gotSpec, gotCreds = spec, creds
		return nil, errors.New("stop")
	})

	_, err := r.Open(context.Background(), Spec{Slug: "t1", Kind: "test"}, Credentials{AWSAccessKey: "AK"})
	assert.EqualError(t, err, "stop")
	assert.Equal(t, "t1", gotSpec.Slug)
	assert.Equal(t, "AK", gotCreds.AWSAccessKey)
	assert.Equal(t, []string{"test"}, r.Kinds())
}

func TestRegistry_UnknownKind(t *testing.T) {
	_, err := NewRegistry().Open(context.Background(), Spec{Kind: "azure"}, Credentials{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestCredentials_Empty(t *testing.T) {
	assert.True(t, Credentials{}.Empty())
	assert.False(t, Credentials{OSUsername: "u"}.Empty())
}
