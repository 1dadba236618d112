package blkreader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_LockTime(t *testing.T) {
	h := LockTime(499_999_999)
	require.True(t, h.IsHeightLock())
	require.False(t, h.IsTimeLock())
	require.Equal(t, uint32(499_999_999), h.Height())
	require.Panics(t, func() { h.Time() })

	tl := LockTime(LockTimeThreshold)
	require.True(t, tl.IsTimeLock())
	require.False(t, tl.IsHeightLock())
	require.Equal(t, time.Unix(500_000_000, 0).UTC(), tl.Time())
	require.Panics(t, func() { tl.Height() })

	require.Equal(t, "0", LockTime(0).String())
	require.Equal(t, "4294967295", LockTime(0xffffffff).String())
}

func Test_LockTimeScan(t *testing.T) {
	var l LockTime
	require.NoError(t, l.Scan(int64(-1)))
	require.Equal(t, LockTime(0xffffffff), l)
	require.Error(t, l.Scan("1"))
}
