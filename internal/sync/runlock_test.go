package sync

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLock(t *testing.T) {
	l := NewRunLock()

	release, err := l.Acquire("sync-bookings")
	require.NoError(t, err)

	_, err = l.Acquire("sync-bookings")
	assert.True(t, eris.Is(err, ErrRunInProgress))

	// A different run name is independent.
	releaseOther, err := l.Acquire("sync-roster")
	require.NoError(t, err)
	releaseOther()

	release()
	release2, err := l.Acquire("sync-bookings")
	require.NoError(t, err)
	release2()
}
