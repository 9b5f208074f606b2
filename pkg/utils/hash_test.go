package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifyEventIDStable(t *testing.T) {
	a := NotifyEventID("txABC", "addr1")
	b := NotifyEventID("txABC", "addr1")
	require.Equal(t, a, b)
}

func TestNotifyEventIDDistinct(t *testing.T) {
	base := NotifyEventID("txABC", "addr1")
	require.NotEqual(t, base, NotifyEventID("txABC", "addr2"))
	require.NotEqual(t, base, NotifyEventID("txXYZ", "addr1"))
	// 拼接歧义：分隔符保证 ("ab","c") 与 ("a","bc") 不同
	require.NotEqual(t, NotifyEventID("ab", "c"), NotifyEventID("a", "bc"))
}

func TestNotifyEventIDFitsInt64(t *testing.T) {
	for _, tx := range []string{"", "a", "txABC", "ffffffffffffffff"} {
		id := NotifyEventID(tx, "addr")
		require.Zero(t, id>>63)
	}
}
