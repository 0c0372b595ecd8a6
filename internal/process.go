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
	"sort"
	"time"
)

// EventType tags the variant carried by an Event, the way the teacher SDK
// tags a *apiv1.Decision by its Attributes oneof case.
type EventType int32

const (
	EventTypeProcessStarted EventType = iota
	EventTypeDecisionStarted
	EventTypeDecisionEvent
	EventTypeActivityStarted
	EventTypeActivityEvent
	EventTypeSignalEvent
	EventTypeTimerEvent
	EventTypeChildProcessEvent
)

func (t EventType) String() string {
	switch t {
	case EventTypeProcessStarted:
		return "ProcessStarted"
	case EventTypeDecisionStarted:
		return "DecisionStarted"
	case EventTypeDecisionEvent:
		return "DecisionEvent"
	case EventTypeActivityStarted:
		return "ActivityStarted"
	case EventTypeActivityEvent:
		return "ActivityEvent"
	case EventTypeSignalEvent:
		return "SignalEvent"
	case EventTypeTimerEvent:
		return "TimerEvent"
	case EventTypeChildProcessEvent:
		return "ChildProcessEvent"
	default:
		return "Unknown"
	}
}

type (
	// Event is one entry in a process's append-only history. Attributes
	// holds one of the *Attributes structs below, selected by Type -
	// mirrors the oneof-attributes shape of apiv1.Decision/HistoryEvent in
	// the teacher SDK, without requiring a protobuf wire schema.
	Event struct {
		Type       EventType
		Attributes interface{}
	}

	// ProcessStartedAttributes carries no data; its presence in history is
	// the signal itself (spec.md P1: history begins with ProcessStarted).
	ProcessStartedAttributes struct{}

	// DecisionStartedAttributes carries no data.
	DecisionStartedAttributes struct{}

	// DecisionEventAttributes records the raw decision a decider emitted,
	// before the Decision Interpreter applies its side effect.
	DecisionEventAttributes struct {
		Decision Decision
	}

	// ActivityStartedAttributes records that an activity execution was
	// handed to a worker.
	ActivityStartedAttributes struct {
		Execution ActivityExecution
	}

	// ActivityEventAttributes records the terminal outcome of a
	// previously-started activity execution.
	ActivityEventAttributes struct {
		Execution ActivityExecution
		Outcome   ActivityOutcome
	}

	// SignalEventAttributes records an external signal delivered to the process.
	SignalEventAttributes struct {
		Signal Signal
	}

	// TimerEventAttributes records a timer firing. Appended when the
	// timer-bearing decision is polled, not when it is scheduled
	// (SPEC_FULL.md §9 Timer semantics).
	TimerEventAttributes struct {
		Timer Timer
	}

	// ChildProcessEventAttributes records a child process's terminal result
	// being relayed to its parent.
	ChildProcessEventAttributes struct {
		ChildProcessID string
		Workflow       string
		Tags           []string
		Result         ChildProcessResult
	}
)

// Signal is the payload of a SignalEvent.
type Signal struct {
	Name string
	Data interface{}
}

// ActivityExecution identifies one scheduled/running activity instance.
type ActivityExecution struct {
	ActivityName string
	ID           string
	Input        interface{}
}

// ActivityOutcome is the sealed set of terminal activity results, mirroring
// apiv1's ActivityTaskCompleted/Failed/TimedOut/Canceled event attributes.
type ActivityOutcome interface {
	isActivityOutcome()
}

type (
	// ActivityCompleted is the outcome of a successful activity execution.
	ActivityCompleted struct {
		Result interface{}
	}
	// ActivityCanceled is the outcome of an activity removed by CancelActivity.
	ActivityCanceled struct{}
	// ActivityTimedOut is the outcome the sweeper assigns to an overdue
	// scheduled or running activity.
	ActivityTimedOut struct{}
	// ActivityFailed is the outcome of an activity the worker reported as failed.
	ActivityFailed struct {
		Reason string
	}
)

func (ActivityCompleted) isActivityOutcome() {}
func (ActivityCanceled) isActivityOutcome()  {}
func (ActivityTimedOut) isActivityOutcome()  {}
func (ActivityFailed) isActivityOutcome()    {}

// ChildProcessResult is the sealed set of terminal results a completed or
// canceled child process relays to its parent.
type ChildProcessResult interface {
	isChildProcessResult()
}

type (
	// ProcessCompleted is the result of a child that emitted CompleteProcess.
	ProcessCompleted struct {
		Result interface{}
	}
	// ProcessCanceled is the result of a child that emitted CancelProcess
	// (either directly, or via cascading cancel_process on an ancestor).
	ProcessCanceled struct {
		Details interface{}
	}
)

func (ProcessCompleted) isChildProcessResult() {}
func (ProcessCanceled) isChildProcessResult()  {}

// Decision is the sealed set of instructions a decider may emit from a
// decision task, per SPEC_FULL.md §4.7.
type Decision interface {
	isDecision()
}

type (
	// ScheduleActivity schedules a new activity execution for the process.
	// Category, if empty, defaults to the activity descriptor's category.
	ScheduleActivity struct {
		ActivityName string
		ID           string
		Input        interface{}
		Category     string
	}

	// CancelActivity cancels a previously scheduled or running activity by
	// its caller-supplied id.
	CancelActivity struct {
		ID string
	}

	// StartChildProcess starts a new process parented to the current one.
	StartChildProcess struct {
		Template ProcessTemplate
	}

	// Timer schedules a decision task wake-up after Delay. ID is optional
	// and purely informational (carried through to the TimerEvent); the
	// scheduler does not deduplicate on it.
	Timer struct {
		ID    string
		Delay time.Duration
	}

	// CompleteProcess ends the process successfully with Result.
	CompleteProcess struct {
		Result interface{}
	}

	// CancelProcess ends the process via cancellation, with optional Details.
	CancelProcess struct {
		Details interface{}
	}
)

func (ScheduleActivity) isDecision()   {}
func (CancelActivity) isDecision()     {}
func (StartChildProcess) isDecision()  {}
func (Timer) isDecision()              {}
func (CompleteProcess) isDecision()    {}
func (CancelProcess) isDecision()      {}

// ProcessTemplate is the caller-supplied shape of a new process, used by
// both StartProcess and the StartChildProcess decision.
type ProcessTemplate struct {
	ID           string
	Workflow     string
	Input        interface{}
	Tags         []string
	CronSchedule string
	Memo         map[string]string
}

// Process is a live instance of a workflow. The backend is the sole owner;
// callers only ever observe Snapshot() copies (SPEC_FULL.md §3).
type Process struct {
	ID           string
	Workflow     string
	Input        interface{}
	Tags         map[string]struct{}
	ParentID     string
	CronSchedule string
	Memo         map[string]string
	History      []Event
}

// HasTag reports whether tag is present on the process.
func (p *Process) HasTag(tagName string) bool {
	_, ok := p.Tags[tagName]
	return ok
}

// HasParent reports whether the process was started as a child.
func (p *Process) HasParent() bool {
	return p.ParentID != ""
}

// tagList renders a tag set back into a deterministic, sorted slice for
// embedding in a ChildProcessEvent.
func tagList(tags map[string]struct{}) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// append adds an event to the process's history. The only mutator of
// History outside of Snapshot, keeping I5 (append-only, totally ordered)
// trivially true by construction.
func (p *Process) append(evt Event) {
	p.History = append(p.History, evt)
}

// Snapshot returns a deep copy safe for a caller to retain and mutate
// without affecting backend state.
func (p *Process) Snapshot() Process {
	cp := *p
	if p.Tags != nil {
		cp.Tags = make(map[string]struct{}, len(p.Tags))
		for t := range p.Tags {
			cp.Tags[t] = struct{}{}
		}
	}
	if p.Memo != nil {
		cp.Memo = make(map[string]string, len(p.Memo))
		for k, v := range p.Memo {
			cp.Memo[k] = v
		}
	}
	cp.History = make([]Event, len(p.History))
	copy(cp.History, p.History)
	return cp
}

func tagSet(tags []string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// ActivityTask is handed to a worker by PollActivityTask.
type ActivityTask struct {
	Execution ActivityExecution
	ProcessID string
	RunID     string
}

// DecisionTask is handed to a decider by PollDecisionTask. Process is a
// snapshot taken at poll time, after any TimerEvent for a timer-raised
// wake-up and before the DecisionStarted event that the poll appends to the
// stored history.
type DecisionTask struct {
	Process Process
	RunID   string
}
