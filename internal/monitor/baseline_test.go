package monitor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneshrallapalli/sentinel/internal/observation"
)

func TestBaselineTracker_FirstWriteWins(t *testing.T) {
	tr := NewBaselineTracker()
	now := time.Now()

	require.True(t, tr.Establish("task-1", "person sitting in chair", now))
	assert.False(t, tr.Establish("task-1", "person standing", now.Add(time.Minute)))

	b := tr.Current("task-1")
	require.NotNil(t, b)
	assert.Equal(t, "person sitting in chair", b.Description)
	assert.Equal(t, now, b.EstablishedAt)
}

func TestBaselineTracker_ConcurrentEstablishSetsExactlyOne(t *testing.T) {
	tr := NewBaselineTracker()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if tr.Establish("task-1", "baseline attempt", time.Now().Add(time.Duration(i))) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one concurrent Establish may win")
	require.NotNil(t, tr.Current("task-1"))
}

func TestBaselineTracker_CurrentUnknownTask(t *testing.T) {
	tr := NewBaselineTracker()
	assert.Nil(t, tr.Current("missing"))
}

func TestBaselineTracker_Compare(t *testing.T) {
	tr := NewBaselineTracker()
	mismatch := false

	obs := &observation.Observation{BaselineMatch: &mismatch}

	// No baseline yet: comparison is inert.
	assert.Nil(t, tr.Compare("task-1", obs))

	tr.Establish("task-1", "door closed", time.Now())

	got := tr.Compare("task-1", obs)
	require.NotNil(t, got)
	assert.False(t, *got)

	// Observation without an upstream comparison stays nil.
	assert.Nil(t, tr.Compare("task-1", &observation.Observation{}))
}
