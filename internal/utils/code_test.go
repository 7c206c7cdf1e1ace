package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := RandomCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = struct{}{}
	}
	// 36^6 possibilities; 200 draws colliding more than a couple of times means a broken source.
	require.Greater(t, len(seen), 195)
}

func TestNewCardID(t *testing.T) {
	id, err := NewCardID()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(id, "CARD-"))
	require.Len(t, id, len("CARD-")+8)
}
