package clipper_test

import (
	"testing"

	"github.com/fwojciec/clipper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	t.Run("lowercases scheme and host and drops fragment", func(t *testing.T) {
		t.Parallel()

		got, err := clipper.NormalizeURL("  HTTPS://Example.COM/Path?q=1#section ")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/Path?q=1", got)
	})

	invalid := []string{"", "/relative/path", "ftp://example.com/file", "https://", "http://[::1"}
	for _, raw := range invalid {
		t.Run("rejects "+raw, func(t *testing.T) {
			t.Parallel()

			_, err := clipper.NormalizeURL(raw)
			assert.Equal(t, clipper.EINVALID, clipper.ErrorCode(err))
		})
	}
}

func TestHostname(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", clipper.Hostname("https://example.com:8443/a"))
	assert.Empty(t, clipper.Hostname("%zz"))
}
