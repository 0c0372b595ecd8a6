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
	"fmt"
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"go.uber.org/orchestrator/internal/metrics"
	"go.uber.org/orchestrator/internal/tag"
)

// TrailingDecisionPolicy controls what happens to decisions a decider
// emitted after CompleteProcess/CancelProcess within the same decision
// batch. SPEC_FULL.md §9 resolves the ambiguity backend.py leaves open (it
// happily keeps dispatching them) in favor of treating the process as
// closed for business the instant a terminal decision is seen.
type TrailingDecisionPolicy int

const (
	// TrailingDecisionIgnore silently drops trailing decisions. Default.
	TrailingDecisionIgnore TrailingDecisionPolicy = iota
	// TrailingDecisionWarn drops them but returns a multierr-joined warning
	// from CompleteDecisionTask describing each one skipped.
	TrailingDecisionWarn
)

// interpreter applies the decision list a decider returns from a decision
// task, in order, against one process - grounded on backend.py's
// complete_decision_task dispatch block.
type interpreter struct {
	activities *activityQueues
	decisions  *decisionQueues
	processes  *processStore
	registry   *registry
	ids        *idGenerator
	cron       *cronScheduler
	logger     *zap.Logger
	scope      tally.Scope
	observer   ProcessObserver
	policy     TrailingDecisionPolicy
}

// Apply appends and acts on each decision against processID's history, in
// order. It returns an UnknownProcess error, applying nothing, when
// processID is not in the store; otherwise it returns a non-nil error only
// when the policy is TrailingDecisionWarn and at least one decision was
// skipped as trailing. The batch is otherwise always fully applied, since
// panicIllegalState is how programming errors (unregistered names) are
// surfaced instead.
func (ip *interpreter) Apply(processID string, decisions []Decision, now time.Time) error {
	p, ok := ip.processes.get(processID)
	if !ok {
		return NewUnknownProcessError(processID)
	}

	terminal := false
	var trailing []error

	for _, d := range decisions {
		if terminal {
			if ip.policy == TrailingDecisionWarn {
				trailing = append(trailing, fmt.Errorf("orchestrator: decision %T ignored after process %s completed or canceled", d, processID))
			}
			continue
		}

		p.append(Event{Type: EventTypeDecisionEvent, Attributes: DecisionEventAttributes{Decision: d}})
		ip.logger.Debug("applying decision",
			tag.Component(tag.ComponentInterpreter),
			tag.ProcessID(processID),
			zap.String("decision-type", fmt.Sprintf("%T", d)),
		)

		switch dec := d.(type) {
		case ScheduleActivity:
			ip.scheduleActivity(p, dec, now)
		case CancelActivity:
			ip.cancelActivity(p, dec)
		case StartChildProcess:
			ip.startChildProcess(p, dec, now)
		case Timer:
			ip.armTimer(p, dec, now)
		case CompleteProcess:
			terminal = true
			ip.completeProcess(p, dec, now)
		case CancelProcess:
			terminal = true
			ip.cancelProcess(p, dec, now)
		default:
			panicIllegalState("orchestrator: unrecognized decision type %T", d)
		}
	}

	if len(trailing) > 0 {
		return multierr.Combine(trailing...)
	}
	return nil
}

func (ip *interpreter) scheduleActivity(p *Process, dec ScheduleActivity, now time.Time) {
	act := ip.registry.activity(dec.ActivityName)
	category := dec.Category
	if category == "" {
		category = act.Category
	}
	ip.activities.schedule(category, p.ID, ActivityExecution{
		ActivityName: dec.ActivityName,
		ID:           dec.ID,
		Input:        dec.Input,
	}, act.ScheduleTimeout, act.ExecutionTimeout, act.HeartbeatTimeout, now)
	ip.scope.Counter(metrics.ActivitiesScheduledCounter).Inc(1)
}

func (ip *interpreter) cancelActivity(p *Process, dec CancelActivity) {
	execution, found := ip.activities.cancelByID(p.ID, dec.ID)
	if !found {
		return
	}
	p.append(Event{
		Type: EventTypeActivityEvent,
		Attributes: ActivityEventAttributes{
			Execution: execution,
			Outcome:   ActivityCanceled{},
		},
	})
}

func (ip *interpreter) startChildProcess(p *Process, dec StartChildProcess, now time.Time) {
	child := startNewProcess(ip.processes, ip.registry, ip.ids, ip.decisions, now, dec.Template, p.ID)
	ip.scope.Counter(metrics.ProcessesStartedCounter).Inc(1)
	ip.observer.OnProcessStarted(child.ID, child.Workflow)
}

// armTimer schedules a future decision-task wake-up. The TimerEvent itself
// is appended only once the wake-up is actually polled
// (SPEC_FULL.md §9), not here.
func (ip *interpreter) armTimer(p *Process, dec Timer, now time.Time) {
	wf := ip.registry.workflow(p.Workflow)
	timer := dec
	// Timer entries carry no scheduled-expiry; sweepScheduledTimeouts never
	// evicts them regardless of this value, so 0 documents that intent at
	// the call site rather than reusing DecisionTimeout for the wrong thing.
	ip.decisions.schedule(wf.DecisionCategory, p.ID, now, &timer, 0)
	ip.scope.Counter(metrics.DecisionsScheduledCounter).Inc(1)
}

// completeProcess ends p successfully: notifies its parent (if any), seeds
// a cron continuation (if any), then removes p from the store - a process
// exists in the store iff it is live (SPEC_FULL.md §3).
func (ip *interpreter) completeProcess(p *Process, dec CompleteProcess, now time.Time) {
	ip.decisions.cancel(ip.registry.workflow(p.Workflow).DecisionCategory, p.ID)
	ip.notifyParent(p, ProcessCompleted{Result: dec.Result}, now)
	ip.cron.ContinueIfScheduled(p, now)
	ip.activities.purgeProcess(p.ID)
	ip.processes.remove(p.ID)
	ip.scope.Counter(metrics.ProcessesCompletedCounter).Inc(1)
	ip.observer.OnProcessCompleted(p.ID, dec.Result)
}

// cancelProcess ends p and cascades cancellation to every still-live
// descendant before removing it, mirroring backend.py's
// _cancel_process_internal walking the process tree top-down.
func (ip *interpreter) cancelProcess(p *Process, dec CancelProcess, now time.Time) {
	ip.decisions.cancel(ip.registry.workflow(p.Workflow).DecisionCategory, p.ID)
	ip.notifyParent(p, ProcessCanceled{Details: dec.Details}, now)
	ip.cascadeCancel(p.ID, now)
	ip.activities.purgeProcess(p.ID)
	ip.processes.remove(p.ID)
	ip.scope.Counter(metrics.ProcessesCanceledCounter).Inc(1)
	ip.observer.OnProcessCanceled(p.ID, dec.Details)
}

// cascadeCancel recurses into parentID's still-live children before
// removing any of them, so a grandchild's notifyParent still finds its
// immediate parent in the store when it runs.
func (ip *interpreter) cascadeCancel(parentID string, now time.Time) {
	children := ip.processes.childrenOf(parentID)
	ids := make([]string, len(children))
	copy(ids, children)

	for _, childID := range ids {
		child, ok := ip.processes.get(childID)
		if !ok {
			continue
		}
		child.append(Event{
			Type:       EventTypeDecisionEvent,
			Attributes: DecisionEventAttributes{Decision: CancelProcess{}},
		})
		ip.decisions.cancel(ip.registry.workflow(child.Workflow).DecisionCategory, child.ID)
		ip.notifyParent(child, ProcessCanceled{}, now)
		ip.cascadeCancel(child.ID, now)
		ip.activities.purgeProcess(child.ID)
		ip.processes.remove(child.ID)
		ip.scope.Counter(metrics.ProcessesCanceledCounter).Inc(1)
		ip.observer.OnProcessCanceled(child.ID, nil)
	}
}

// notifyParent relays a child's terminal result up to its parent's history
// and wakes the parent with a fresh decision task, if the process has one.
func (ip *interpreter) notifyParent(p *Process, result ChildProcessResult, now time.Time) {
	if !p.HasParent() {
		return
	}
	parent, ok := ip.processes.get(p.ParentID)
	if !ok {
		return
	}
	parent.append(Event{
		Type: EventTypeChildProcessEvent,
		Attributes: ChildProcessEventAttributes{
			ChildProcessID: p.ID,
			Workflow:       p.Workflow,
			Tags:           tagList(p.Tags),
			Result:         result,
		},
	})
	wf := ip.registry.workflow(parent.Workflow)
	ip.decisions.schedule(wf.DecisionCategory, parent.ID, now, nil, wf.DecisionTimeout)
}
