package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIPAddressDeterministic(t *testing.T) {
	t.Parallel()

	a := HashIPAddress("1.2.3.4")
	b := HashIPAddress("1.2.3.4")
	require.Equal(t, a, b, "same address must hash to the same digest")
	require.Len(t, a, 32)
}

func TestHashIPAddressDistinct(t *testing.T) {
	t.Parallel()

	seen := map[string]string{}
	for _, addr := range []string{"1.2.3.4", "5.6.7.8", "1.2.3.5", "::1", "2001:db8::1", ""} {
		digest := string(HashIPAddress(addr))
		prev, dup := seen[digest]
		assert.False(t, dup, "addresses %q and %q collided", addr, prev)
		seen[digest] = addr
	}
}

func TestHashIPAddressNeverStoresRawAddress(t *testing.T) {
	t.Parallel()

	// The digest must not embed the input.
	digest := HashIPAddress("203.0.113.7")
	assert.NotContains(t, string(digest), "203.0.113.7")
}
