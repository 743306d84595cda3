package jobs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := randomCode(8)
		require.NoError(t, err)
		require.Len(t, code, 8)
		for _, r := range code {
			require.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	// 100 draws from a 31^8 space must not all collide.
	require.Greater(t, len(seen), 90)
}
