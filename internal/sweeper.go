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

package internal

import (
	"context"
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"go.uber.org/orchestrator/internal/metrics"
	"go.uber.org/orchestrator/internal/tag"
)

// sweeper evicts stale scheduled/running work and re-wakes the processes
// that owned it. It samples the clock exactly once per Sweep call so every
// phase of one pass judges timeouts against the same instant (spec.md §4.5:
// tie-breaking is deterministic within a sweep), the same way backend.py's
// _time_out_activities/_time_out_decisions each take a single `now`.
//
// Sweep runs inline at the top of every Dispatcher operation that starts,
// signals, cancels, polls, heartbeats or completes (not in registration or
// the ProcessByID/Processes reads) rather than on its own timer goroutine -
// a backend under load sweeps on nearly every call anyway. RunPeriodic
// below is offered for callers that want overdue work reaped even while
// nothing else is polling.
type sweeper struct {
	activities *activityQueues
	decisions  *decisionQueues
	processes  *processStore
	registry   *registry
	clock      Clock
	logger     *zap.Logger
	scope      tally.Scope
}

func newSweeper(activities *activityQueues, decisions *decisionQueues, processes *processStore, registry *registry, clock Clock, logger *zap.Logger, scope tally.Scope) *sweeper {
	return &sweeper{
		activities: activities,
		decisions:  decisions,
		processes:  processes,
		registry:   registry,
		clock:      clock,
		logger:     logger,
		scope:      scope,
	}
}

// Sweep performs the four-phase timeout pass described in SPEC_FULL.md §4.5:
// scheduled activities, then running activities, then running decisions,
// then scheduled decisions. Each phase's evictions wake the owning process
// with a fresh decision task; activity evictions additionally append an
// ActivityEvent(ActivityTimedOut) to the process history first.
func (s *sweeper) Sweep() {
	now := s.clock.Now()

	for _, evicted := range s.activities.sweepScheduledTimeouts(now) {
		s.timeOutActivity(evicted, tag.TimeoutKindScheduledActivity)
	}
	for _, evicted := range s.activities.sweepRunningTimeouts(now) {
		s.timeOutActivity(evicted, tag.TimeoutKindRunningActivity)
	}
	for _, processID := range s.decisions.sweepRunningTimeouts(now) {
		s.timeOutDecision(processID, tag.TimeoutKindRunningDecision)
	}
	for _, processID := range s.decisions.sweepScheduledTimeouts(now) {
		s.timeOutDecision(processID, tag.TimeoutKindScheduledDecision)
	}
}

func (s *sweeper) timeOutActivity(evicted timedOutActivity, kind string) {
	s.logger.Warn("activity timed out",
		tag.Component(tag.ComponentSweeper),
		tag.TimeoutKind(kind),
		tag.ProcessID(evicted.key.processID),
		tag.ActivityID(evicted.key.activityID),
		tag.Activity(evicted.execution.ActivityName),
	)
	s.scope.Counter(metrics.SweepTimeoutsCounter).Inc(1)

	s.processes.appendEvent(evicted.key.processID, Event{
		Type: EventTypeActivityEvent,
		Attributes: ActivityEventAttributes{
			Execution: evicted.execution,
			Outcome:   ActivityTimedOut{},
		},
	})
	s.wakeProcess(evicted.key.processID)
}

// timeOutDecision re-wakes processID after one of its decision tasks expired
// without being completed. Unlike an activity timeout this leaves no trace
// in history - the decider simply gets another decision task, the same way
// backend.py's decision timeout path has no analog to ActivityTimedOut.
func (s *sweeper) timeOutDecision(processID string, kind string) {
	s.logger.Warn("decision task timed out",
		tag.Component(tag.ComponentSweeper),
		tag.TimeoutKind(kind),
		tag.ProcessID(processID),
	)
	s.scope.Counter(metrics.SweepTimeoutsCounter).Inc(1)
	s.wakeProcess(processID)
}

func (s *sweeper) wakeProcess(processID string) {
	p, ok := s.processes.get(processID)
	if !ok {
		return
	}
	wf := s.registry.workflow(p.Workflow)
	s.decisions.schedule(wf.DecisionCategory, processID, s.clock.Now(), nil, wf.DecisionTimeout)
}

// RunPeriodic sweeps every interval until ctx is canceled, for a caller that
// wants overdue timeouts reaped promptly even during a lull in traffic.
// withLock is expected to run the given closure while holding the
// Dispatcher's mutex, since Sweep mutates shared queue and process state.
func (s *sweeper) RunPeriodic(ctx context.Context, interval time.Duration, withLock func(func())) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			withLock(s.Sweep)
		}
	}
}
