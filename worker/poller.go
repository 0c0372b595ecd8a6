// Copyright (c) 2017 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package worker supplies an optional blocking poll-and-sleep loop for
// deciders and activity workers that would rather not write their own retry
// logic against the Orchestrator's synchronous poll operations.
package worker

import (
	"time"

	"go.uber.org/zap"

	orchestrator "go.uber.org/orchestrator"
)

// DecisionHandler processes one decision task and returns the decisions the
// decider wants applied. Returning a nil or empty slice is valid: it leaves
// the process as-is other than the DecisionStarted event already recorded.
type DecisionHandler func(task *orchestrator.DecisionTask) []orchestrator.Decision

// ActivityHandler executes one activity task and returns its outcome.
type ActivityHandler func(task *orchestrator.ActivityTask) orchestrator.ActivityOutcome

// Options configures a PollLoop.
type Options struct {
	// Category is the queue category to poll.
	Category string
	// Identity is passed through to PollActivityTask/PollDecisionTask,
	// unused by the Orchestrator today but useful for a handler's own logs.
	Identity string
	// PollInterval is how long Run sleeps after an empty poll before trying
	// again. Defaults to 100ms.
	PollInterval time.Duration
	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

func (o *Options) setDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = 100 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// PollLoop repeatedly polls one category of one Orchestrator and dispatches
// whatever it finds to a handler, the same Start/Run/Stop shape as the
// teacher SDK's Worker, repurposed from polling a remote Cadence service
// over RPC to polling this in-process backend directly.
type PollLoop struct {
	poll func() bool
	opts Options
	stop chan struct{}
	done chan struct{}
}

// NewDecisionPollLoop builds a PollLoop that polls decision tasks from
// backend and hands each to handler, completing it with whatever decisions
// the handler returns.
func NewDecisionPollLoop(backend *orchestrator.Orchestrator, handler DecisionHandler, opts Options) *PollLoop {
	opts.setDefaults()
	poll := func() bool {
		task, ok := backend.PollDecisionTask(opts.Category, opts.Identity)
		if !ok {
			return false
		}
		decisions := handler(task)
		if err := backend.CompleteDecisionTask(opts.Category, task.RunID, decisions); err != nil {
			opts.Logger.Warn("failed to complete decision task",
				zap.String("category", opts.Category),
				zap.String("process-id", task.Process.ID),
				zap.Error(err),
			)
		}
		return true
	}
	return &PollLoop{poll: poll, opts: opts}
}

// NewActivityPollLoop builds a PollLoop that polls activity tasks from
// backend and hands each to handler, completing it with the outcome the
// handler returns.
func NewActivityPollLoop(backend *orchestrator.Orchestrator, handler ActivityHandler, opts Options) *PollLoop {
	opts.setDefaults()
	poll := func() bool {
		task, ok := backend.PollActivityTask(opts.Category, opts.Identity)
		if !ok {
			return false
		}
		outcome := handler(task)
		if err := backend.CompleteActivityTask(opts.Category, task.RunID, outcome); err != nil {
			opts.Logger.Warn("failed to complete activity task",
				zap.String("category", opts.Category),
				zap.String("process-id", task.ProcessID),
				zap.Error(err),
			)
		}
		return true
	}
	return &PollLoop{poll: poll, opts: opts}
}

// Start runs the loop on a background goroutine and returns immediately.
func (l *PollLoop) Start() {
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run()
}

// Run blocks, polling until Stop is called. Unlike Start, the caller owns
// the blocking; this is the shape a caller reaches for when the poll loop is
// its main-loop, not a background concern.
func (l *PollLoop) Run() {
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.run()
}

func (l *PollLoop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		default:
		}
		if hit := l.poll(); !hit {
			select {
			case <-l.stop:
				return
			case <-time.After(l.opts.PollInterval):
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to do so.
func (l *PollLoop) Stop() {
	if l.stop == nil {
		return
	}
	close(l.stop)
	<-l.done
}
