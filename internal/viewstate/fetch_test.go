package viewstate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchLifecycle(t *testing.T) {
	var f Fetch[[]int]
	assert.Equal(t, Idle, f.Phase())

	ticket := f.Begin()
	assert.Equal(t, Loading, f.Phase())
	require.True(t, f.Resolve(ticket, []int{1, 2}, nil))

	snap := f.Snapshot()
	assert.Equal(t, Success, snap.Phase)
	assert.Equal(t, []int{1, 2}, snap.Value)
	assert.NoError(t, snap.Err)
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestFetchRefetchClearsValue(t *testing.T) {
	var f Fetch[string]
	f.Resolve(f.Begin(), "first", nil)

	f.Begin()
	snap := f.Snapshot()
	assert.Equal(t, Loading, snap.Phase)
	assert.Empty(t, snap.Value)

	_, ok := f.Value()
	assert.False(t, ok)
}

func TestFetchFailureCountsConsecutive(t *testing.T) {
	var f Fetch[int]
	boom := errors.New("boom")

	f.Resolve(f.Begin(), 0, boom)
	f.Resolve(f.Begin(), 0, boom)
	snap := f.Snapshot()
	assert.Equal(t, Failure, snap.Phase)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, 2, snap.Failures)

	f.Resolve(f.Begin(), 7, nil)
	assert.Equal(t, 0, f.Snapshot().Failures)
}

func TestFetchDropsStaleTicket(t *testing.T) {
	var f Fetch[string]
	old := f.Begin()
	current := f.Begin()

	assert.False(t, f.Resolve(old, "stale", nil))
	assert.Equal(t, Loading, f.Phase())

	assert.True(t, f.Resolve(current, "fresh", nil))
	v, ok := f.Value()
	require.True(t, ok)
	assert.Equal(t, "fresh", v)

	// A second resolve for the same ticket is ignored too.
	assert.False(t, f.Resolve(current, "again", nil))
	v, _ = f.Value()
	assert.Equal(t, "fresh", v)
}

func TestFetchResetInvalidatesInFlight(t *testing.T) {
	var f Fetch[int]
	ticket := f.Begin()
	f.Reset()

	assert.False(t, f.Resolve(ticket, 5, nil))
	assert.Equal(t, Idle, f.Phase())
}

func TestFetchMutateOnlyInSuccess(t *testing.T) {
	var f Fetch[[]int]
	double := func(xs []int) []int {
		out := make([]int, len(xs))
		for i, x := range xs {
			out[i] = x * 2
		}
		return out
	}

	assert.False(t, f.Mutate(double))

	ticket := f.Begin()
	assert.False(t, f.Mutate(double))

	f.Resolve(ticket, []int{1, 2, 3}, nil)
	assert.True(t, f.Mutate(double))
	v, _ := f.Value()
	assert.Equal(t, []int{2, 4, 6}, v)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
