package identitykey_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/sqlshift/internal/identitykey"
)

func TestEncode_PrefixesByType(t *testing.T) {
	require.Equal(t, "i:10", identitykey.Encode([]any{int64(10)}))
	require.Equal(t, "s:alice", identitykey.Encode([]any{"alice"}))
	require.Equal(t, "r:1.5", identitykey.Encode([]any{1.5}))
	require.Equal(t, "v:", identitykey.Encode([]any{nil}))
}

func TestEncode_JoinsMultipleValues(t *testing.T) {
	require.Equal(t, "i:1|s:alice", identitykey.Encode([]any{int64(1), "alice"}))
}

func TestEncode_EscapesPipeInStrings(t *testing.T) {
	got := identitykey.Encode([]any{"a|b"})
	require.Equal(t, "s:a||b", got)
	// Distinct inputs that would collide without escaping must still encode
	// to distinct keys.
	require.NotEqual(t, identitykey.Encode([]any{"a|b", "c"}), identitykey.Encode([]any{"a", "b|c"}))
}

func TestEncode_BoolAsInteger(t *testing.T) {
	require.Equal(t, "i:1", identitykey.Encode([]any{true}))
	require.Equal(t, "i:0", identitykey.Encode([]any{false}))
}

func TestEncode_ByteSliceAsString(t *testing.T) {
	require.Equal(t, "s:abc", identitykey.Encode([]any{[]byte("abc")}))
}
