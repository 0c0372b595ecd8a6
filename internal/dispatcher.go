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
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go.uber.org/orchestrator/internal/metrics"
	"go.uber.org/orchestrator/internal/tag"
)

// Backend is the single in-process coordinator for every registered
// workflow and activity type: registry, process store, the activity and
// decision queues, the timeout sweeper and the decision interpreter, all
// guarded by one mutex. SPEC_FULL.md §5 treats this as an implementation
// convenience for safe concurrent callers, not a claim that the engine
// itself runs more than one logical operation at a time - grounded on
// backend.py's MemoryBackend, which is single-threaded by virtue of asyncio.
type Backend struct {
	mu sync.Mutex

	registry    *registry
	processes   *processStore
	activities  *activityQueues
	decisions   *decisionQueues
	sweeper     *sweeper
	interpreter *interpreter
	cron        *cronScheduler
	ids         *idGenerator

	clock        Clock
	logger       *zap.Logger
	scope        tally.Scope
	tracer       opentracing.Tracer
	pollLimiters map[string]*rate.Limiter
}

// NewBackend constructs a Backend with the given defaults applied to every
// workflow/activity registered against it.
func NewBackend(defaults Defaults) *Backend {
	reg := newRegistry(defaults)
	processes := newProcessStore()
	activities := newActivityQueues()
	decisions := newDecisionQueues()
	ids := newIDGenerator()
	cron := newCronScheduler(processes, reg, ids, decisions, reg.defaults.Logger)
	sweep := newSweeper(activities, decisions, processes, reg, reg.defaults.Clock, reg.defaults.Logger, reg.defaults.MetricsScope)
	interp := &interpreter{
		activities: activities,
		decisions:  decisions,
		processes:  processes,
		registry:   reg,
		ids:        ids,
		cron:       cron,
		logger:     reg.defaults.Logger,
		scope:      reg.defaults.MetricsScope,
		observer:   reg.defaults.Observer,
		policy:     reg.defaults.TrailingDecisionPolicy,
	}

	return &Backend{
		registry:     reg,
		processes:    processes,
		activities:   activities,
		decisions:    decisions,
		sweeper:      sweep,
		interpreter:  interp,
		cron:         cron,
		ids:          ids,
		clock:        reg.defaults.Clock,
		logger:       reg.defaults.Logger,
		scope:        reg.defaults.MetricsScope,
		tracer:       reg.defaults.Tracer,
		pollLimiters: reg.defaults.PollLimiters,
	}
}

func (b *Backend) span(operation string) opentracing.Span {
	return b.tracer.StartSpan(operation)
}

// RegisterWorkflow records a workflow type available to StartProcess and
// StartChildProcess decisions.
func (b *Backend) RegisterWorkflow(d WorkflowDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry.registerWorkflow(d)
	b.logger.Debug("registered workflow", tag.Component(tag.ComponentDispatcher), tag.Workflow(d.Name))
}

// RegisterActivity records an activity type available to ScheduleActivity
// decisions.
func (b *Backend) RegisterActivity(d ActivityDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry.registerActivity(d)
	b.logger.Debug("registered activity", tag.Component(tag.ComponentDispatcher), tag.Activity(d.Name))
}

// StartProcess creates a new top-level process and returns its id. Panics
// via panicIllegalState if template.Workflow was never registered.
func (b *Backend) StartProcess(template ProcessTemplate) string {
	span := b.span("StartProcess")
	defer span.Finish()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper.Sweep()

	now := b.clock.Now()
	p := startNewProcess(b.processes, b.registry, b.ids, b.decisions, now, template, "")

	b.logger.Info("process started", tag.Component(tag.ComponentDispatcher), tag.Operation("StartProcess"), tag.Workflow(p.Workflow), tag.ProcessID(p.ID))
	b.scope.Counter(metrics.ProcessesStartedCounter).Inc(1)
	b.registry.defaults.Observer.OnProcessStarted(p.ID, p.Workflow)
	return p.ID
}

// SignalProcess appends a SignalEvent to processID's history and wakes its
// decider with a fresh decision task.
func (b *Backend) SignalProcess(processID string, signal Signal) error {
	span := b.span("SignalProcess")
	defer span.Finish()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper.Sweep()

	p, ok := b.processes.get(processID)
	if !ok {
		return NewUnknownProcessError(processID)
	}
	p.append(Event{Type: EventTypeSignalEvent, Attributes: SignalEventAttributes{Signal: signal}})

	wf := b.registry.workflow(p.Workflow)
	b.decisions.schedule(wf.DecisionCategory, p.ID, b.clock.Now(), nil, wf.DecisionTimeout)

	b.logger.Debug("signal delivered", tag.Component(tag.ComponentDispatcher), tag.Operation("SignalProcess"), tag.ProcessID(processID))
	b.scope.Counter(metrics.SignalsDeliveredCounter).Inc(1)
	return nil
}

// CancelProcess records a CancelProcess decision against processID as if
// its decider had emitted it directly, cascading to descendants. This is
// the external, caller-initiated counterpart to a decider choosing to
// cancel its own process.
func (b *Backend) CancelProcess(processID string, details interface{}) error {
	span := b.span("CancelProcess")
	defer span.Finish()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper.Sweep()

	if _, ok := b.processes.get(processID); !ok {
		return NewUnknownProcessError(processID)
	}
	if err := b.interpreter.Apply(processID, []Decision{CancelProcess{Details: details}}, b.clock.Now()); err != nil {
		return err
	}

	b.logger.Info("process canceled", tag.Component(tag.ComponentDispatcher), tag.Operation("CancelProcess"), tag.ProcessID(processID))
	return nil
}

// ProcessByID returns a snapshot of processID's current state.
func (b *Backend) ProcessByID(processID string) (Process, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.processes.get(processID)
	if !ok {
		return Process{}, false
	}
	return p.Snapshot(), true
}

// Processes returns a buffered channel, already filled and closed, of
// snapshots of every process carrying tagName, or of every process if
// tagName is empty. There is no filter by workflow name.
func (b *Backend) Processes(tagName string) <-chan Process {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tagName == "" {
		return b.processes.list(nil)
	}
	return b.processes.list(func(p *Process) bool { return p.HasTag(tagName) })
}

// PollActivityTask hands the caller the oldest scheduled activity in
// category, if any. The caller's identity is accepted for parity with
// backend.py's poll_activity_task signature but is not currently recorded
// anywhere; it exists so a future worker-affinity feature has somewhere to
// plug in without an API break.
func (b *Backend) PollActivityTask(category, identity string) (*ActivityTask, bool) {
	span := b.span("PollActivityTask")
	defer span.Finish()

	if !b.allowPoll(category) {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper.Sweep()

	now := b.clock.Now()
	task, ok := b.activities.poll(category, b.ids.newRunID(), now)
	if !ok {
		b.scope.Counter(metrics.PollEmptyCounter).Inc(1)
		return nil, false
	}

	b.processes.appendEvent(task.ProcessID, Event{
		Type:       EventTypeActivityStarted,
		Attributes: ActivityStartedAttributes{Execution: task.Execution},
	})

	b.logger.Debug("activity task polled", tag.Component(tag.ComponentDispatcher), tag.Operation("PollActivityTask"), tag.Category(category), tag.ProcessID(task.ProcessID), tag.ActivityID(task.Execution.ID))
	b.scope.Counter(metrics.PollHitCounter).Inc(1)
	b.scope.Gauge(metrics.ActivityQueueDepthGauge).Update(float64(b.activities.depth(category)))
	return &task, true
}

// HeartbeatActivityTask refreshes the heartbeat-timeout clock for a running
// activity execution; its execution-timeout deadline is unaffected.
func (b *Backend) HeartbeatActivityTask(category, runID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper.Sweep()

	if !b.activities.heartbeat(category, runID, b.clock.Now()) {
		return NewUnknownActivityError(runID)
	}
	return nil
}

// CompleteActivityTask reports the terminal outcome of a running activity
// execution, appends an ActivityEvent and wakes the owning process.
func (b *Backend) CompleteActivityTask(category, runID string, outcome ActivityOutcome) error {
	span := b.span("CompleteActivityTask")
	defer span.Finish()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper.Sweep()

	key, execution, ok := b.activities.complete(category, runID)
	if !ok {
		return NewUnknownActivityError(runID)
	}
	b.processes.appendEvent(key.processID, Event{
		Type:       EventTypeActivityEvent,
		Attributes: ActivityEventAttributes{Execution: execution, Outcome: outcome},
	})

	if p, ok := b.processes.get(key.processID); ok {
		wf := b.registry.workflow(p.Workflow)
		b.decisions.schedule(wf.DecisionCategory, p.ID, b.clock.Now(), nil, wf.DecisionTimeout)
	}

	b.logger.Debug("activity task completed", tag.Component(tag.ComponentDispatcher), tag.Operation("CompleteActivityTask"), tag.Category(category), tag.ProcessID(key.processID), tag.ActivityID(key.activityID))
	b.countActivityOutcome(outcome)
	return nil
}

func (b *Backend) countActivityOutcome(outcome ActivityOutcome) {
	switch outcome.(type) {
	case ActivityCompleted:
		b.scope.Counter(metrics.ActivitiesCompletedCounter).Inc(1)
	case ActivityFailed:
		b.scope.Counter(metrics.ActivitiesFailedCounter).Inc(1)
	case ActivityCanceled:
		b.scope.Counter(metrics.ActivitiesCanceledCounter).Inc(1)
	}
}

// PollDecisionTask hands the caller the oldest ready decision task in
// category, if any. A timer-raised wake-up first appends TimerEvent to the
// process's history; the task's snapshot is taken next, and DecisionStarted
// is appended to the stored history after it, so the snapshot ends with the
// event that caused the wake-up.
func (b *Backend) PollDecisionTask(category, identity string) (*DecisionTask, bool) {
	span := b.span("PollDecisionTask")
	defer span.Finish()

	if !b.allowPoll(category) {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper.Sweep()

	now := b.clock.Now()
	runID := b.ids.newRunID()
	processID, timer, found := b.decisions.poll(category, runID, now, b.decisionTimeoutFor(category))
	if !found {
		b.scope.Counter(metrics.PollEmptyCounter).Inc(1)
		return nil, false
	}

	p, ok := b.processes.get(processID)
	if !ok {
		// the process is no longer in the store; completing or canceling a
		// process purges its scheduled entries, so this is not expected.
		// Drop the task.
		return nil, false
	}

	if timer != nil {
		p.append(Event{Type: EventTypeTimerEvent, Attributes: TimerEventAttributes{Timer: *timer}})
		b.scope.Counter(metrics.TimersFiredCounter).Inc(1)
	}
	task := &DecisionTask{Process: p.Snapshot(), RunID: runID}
	p.append(Event{Type: EventTypeDecisionStarted, Attributes: DecisionStartedAttributes{}})

	b.logger.Debug("decision task polled", tag.Component(tag.ComponentDispatcher), tag.Operation("PollDecisionTask"), tag.Category(category), tag.ProcessID(processID), tag.RunID(runID))
	b.scope.Counter(metrics.PollHitCounter).Inc(1)
	b.scope.Gauge(metrics.DecisionQueueDepthGauge).Update(float64(b.decisions.depth(category)))

	return task, true
}

// decisionTimeoutFor looks up the running-decision timeout to apply for a
// poll against category: the DecisionTimeout of a workflow registered on
// category (an arbitrary one of them when several workflow types share the
// category), or Defaults.DecisionTimeout when none is registered there.
// The running table entry poll() creates uses this value only.
func (b *Backend) decisionTimeoutFor(category string) time.Duration {
	for _, wf := range b.registry.workflows {
		if wf.DecisionCategory == category {
			return wf.DecisionTimeout
		}
	}
	return b.registry.defaults.DecisionTimeout
}

// CompleteDecisionTask applies a decider's decision list to the process
// that owned runID, in order, then clears the running decision task.
func (b *Backend) CompleteDecisionTask(category, runID string, decisions []Decision) error {
	span := b.span("CompleteDecisionTask")
	defer span.Finish()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeper.Sweep()

	processID, ok := b.decisions.complete(category, runID)
	if !ok {
		return NewUnknownDecisionError(runID)
	}

	warning := b.interpreter.Apply(processID, decisions, b.clock.Now())

	b.logger.Debug("decision task completed", tag.Component(tag.ComponentDispatcher), tag.Operation("CompleteDecisionTask"), tag.Category(category), tag.ProcessID(processID), tag.RunID(runID))
	b.scope.Counter(metrics.DecisionsCompletedCounter).Inc(1)

	return warning
}

func (b *Backend) allowPoll(category string) bool {
	limiter, ok := b.pollLimiters[category]
	if !ok {
		return true
	}
	return limiter.Allow()
}

// RunSweeperPeriodically starts a background goroutine that sweeps overdue
// timeouts every interval until ctx is canceled, for callers that want
// timeouts reaped even during a lull in poll traffic. It returns
// immediately; the sweep runs on its own goroutine.
func (b *Backend) RunSweeperPeriodically(ctx context.Context, interval time.Duration) {
	go b.sweeper.RunPeriodic(ctx, interval, func(f func()) {
		b.mu.Lock()
		defer b.mu.Unlock()
		f()
	})
}
