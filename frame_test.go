package jsonstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFrameStartsEmpty(t *testing.T) {
	parent := newFrame(nil, nil)
	f := newFrame(nil, parent)
	require.Same(t, parent, f.parent)
	require.False(t, f.isOpened)
	require.False(t, f.isClosed)
	require.Empty(t, f.values)
	require.Empty(t, f.processed)
	require.NotEqual(t, parent.id, f.id)
}

func TestFrameMarkProcessedAndSeen(t *testing.T) {
	f := newFrame(nil, nil)
	require.False(t, f.processed["a"])
	f.markProcessed("a")
	require.True(t, f.processed["a"])

	require.False(t, f.seenBefore("b"))
	f.markSeen("b")
	require.True(t, f.seenBefore("b"))
	require.False(t, f.seenBefore("c"))
}

func TestFrameRawValuesAccessor(t *testing.T) {
	f := newFrame(nil, nil)
	require.Nil(t, f.rawValuesInto())
	m := map[string]*Value{"x": Int(1)}
	f.setRawValues(m)
	require.Equal(t, m, f.rawValuesInto())
}
