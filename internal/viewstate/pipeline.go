package viewstate

import (
	"context"
	"fmt"
)

// Step is one stage of a sequential pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepError reports which step of a pipeline failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// RunSteps executes steps strictly in order and stops at the first failure.
// onStep, when non-nil, is called before each step starts.
func RunSteps(ctx context.Context, onStep func(name string), steps ...Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
		if onStep != nil {
			onStep(step.Name)
		}
		if err := step.Run(ctx); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}

// Pipeline runs multi-step actions per item, tracking progress in Actions.
// There is no automatic retry; a failed item is re-run by calling Begin again.
type Pipeline[K comparable] struct {
	actions *Actions[K]
}

// NewPipeline wires a pipeline to an action map.
func NewPipeline[K comparable](actions *Actions[K]) *Pipeline[K] {
	return &Pipeline[K]{actions: actions}
}

// Actions exposes the underlying action map.
func (p *Pipeline[K]) Actions() *Actions[K] { return p.actions }

// Begin claims id and returns the function that runs the steps. When id is
// already InProgress, ok is false and nothing is started; the second trigger
// issues no requests.
func (p *Pipeline[K]) Begin(id K, steps ...Step) (run func(ctx context.Context) error, ok bool) {
	if len(steps) == 0 {
		return nil, false
	}
	if !p.actions.Start(id, steps[0].Name) {
		return nil, false
	}
	return func(ctx context.Context) error {
		err := RunSteps(ctx, func(name string) { p.actions.Advance(id, name) }, steps...)
		if err != nil {
			p.actions.Fail(id, err)
			return err
		}
		p.actions.Done(id)
		return nil
	}, true
}
