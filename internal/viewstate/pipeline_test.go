package viewstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionsSecondStartIsNoop(t *testing.T) {
	a := NewActions[int64]()

	require.True(t, a.Start(7, "transcribe"))
	before := a.Get(7)

	assert.False(t, a.Start(7, "transcribe"))
	assert.Equal(t, before, a.Get(7))
	assert.Equal(t, 1, a.Active())
}

func TestActionsRestartAfterFinish(t *testing.T) {
	a := NewActions[int64]()
	a.Start(1, "x")
	a.Fail(1, errors.New("nope"))
	assert.Equal(t, Failed, a.Get(1).Phase)

	require.True(t, a.Start(1, "x"))
	st := a.Get(1)
	assert.Equal(t, InProgress, st.Phase)
	assert.NoError(t, st.Err)

	a.Done(1)
	assert.Equal(t, Done, a.Get(1).Phase)
}

func TestActionsIdsAreIndependent(t *testing.T) {
	a := NewActions[int64]()
	require.True(t, a.Start(1, "x"))
	require.True(t, a.Start(2, "x"))
	a.Done(2)

	assert.Equal(t, InProgress, a.Get(1).Phase)
	assert.Equal(t, Done, a.Get(2).Phase)
	assert.Equal(t, Pending, a.Get(3).Phase)
}

func TestActionsPruneDuringFlight(t *testing.T) {
	a := NewActions[int64]()
	a.Start(4, "x")
	a.Prune(4)
	a.Done(4)

	assert.Equal(t, Pending, a.Get(4).Phase)
	assert.Zero(t, a.Active())
}

func TestActionsZeroValueUsable(t *testing.T) {
	var a Actions[string]
	assert.True(t, a.Start("k", "x"))
	assert.Equal(t, InProgress, a.Get("k").Phase)
}

func TestPipelineRunsStepsInOrder(t *testing.T) {
	p := NewPipeline(NewActions[int64]())
	var order []string
	step := func(name string) Step {
		return Step{Name: name, Run: func(context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	run, ok := p.Begin(3, step("transcribe"), step("extract"))
	require.True(t, ok)
	require.NoError(t, run(context.Background()))

	assert.Equal(t, []string{"transcribe", "extract"}, order)
	st := p.Actions().Get(3)
	assert.Equal(t, Done, st.Phase)
	assert.Equal(t, "extract", st.Step)
}

func TestPipelineShortCircuitsOnFailure(t *testing.T) {
	p := NewPipeline(NewActions[int64]())
	transcribeErr := errors.New("whisper unavailable")
	extractCalled := false

	run, ok := p.Begin(9,
		Step{Name: "transcribe", Run: func(context.Context) error { return transcribeErr }},
		Step{Name: "extract", Run: func(context.Context) error { extractCalled = true; return nil }},
	)
	require.True(t, ok)

	err := run(context.Background())
	require.Error(t, err)
	assert.False(t, extractCalled)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "transcribe", stepErr.Step)
	assert.ErrorIs(t, err, transcribeErr)

	st := p.Actions().Get(9)
	assert.Equal(t, Failed, st.Phase)
	assert.ErrorIs(t, st.Err, transcribeErr)
}

func TestPipelineDuplicateBeginIssuesOneCall(t *testing.T) {
	p := NewPipeline(NewActions[int64]())
	var calls atomic.Int32
	release := make(chan struct{})
	step := Step{Name: "transcribe", Run: func(context.Context) error {
		calls.Add(1)
		<-release
		return nil
	}}

	run, ok := p.Begin(7, step)
	require.True(t, ok)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = run(context.Background())
	}()

	again, ok := p.Begin(7, step)
	assert.False(t, ok)
	assert.Nil(t, again)

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Done, p.Actions().Get(7).Phase)
}

func TestRunStepsHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := RunSteps(ctx, nil, Step{Name: "first", Run: func(context.Context) error {
		called = true
		return nil
	}})
	assert.False(t, called)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineBeginWithoutSteps(t *testing.T) {
	p := NewPipeline(NewActions[int64]())
	run, ok := p.Begin(1)
	assert.False(t, ok)
	assert.Nil(t, run)
	assert.Equal(t, Pending, p.Actions().Get(1).Phase)
}
