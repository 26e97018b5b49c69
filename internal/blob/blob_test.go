package blob

import (
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	t.Parallel()

	d := digest.FromString("hello")
	key, err := KeyFor(d)
	require.NoError(t, err)
	assert.Equal(t, "sha256/"+d.Encoded()[:2]+"/"+d.Encoded(), key)

	_, err = KeyFor("sha256:nothex")
	require.Error(t, err)

	_, err = KeyFor("")
	require.Error(t, err)
}
