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

package orchestrator

import "go.uber.org/orchestrator/internal"

type (
	// Orchestrator is the single in-process coordinator for every registered
	// workflow and activity type. Use New to construct one.
	Orchestrator = internal.Backend

	// WorkflowDescriptor is what RegisterWorkflow records about a workflow type.
	WorkflowDescriptor = internal.WorkflowDescriptor

	// ActivityDescriptor is what RegisterActivity records about an activity type.
	ActivityDescriptor = internal.ActivityDescriptor

	// ProcessTemplate is the caller-supplied shape of a new process, used by
	// both StartProcess and the StartChildProcess decision.
	ProcessTemplate = internal.ProcessTemplate

	// Process is a snapshot of a live workflow instance, including its
	// append-only event history.
	Process = internal.Process

	// Event is one entry in a process's history.
	Event = internal.Event

	// EventType tags the variant carried by an Event.
	EventType = internal.EventType

	// Signal is the payload of a SignalEvent.
	Signal = internal.Signal

	// ActivityExecution identifies one scheduled/running activity instance.
	ActivityExecution = internal.ActivityExecution

	// ActivityTask is handed to a worker by PollActivityTask.
	ActivityTask = internal.ActivityTask

	// DecisionTask is handed to a decider by PollDecisionTask.
	DecisionTask = internal.DecisionTask

	// ActivityOutcome is the sealed set of terminal activity results.
	ActivityOutcome = internal.ActivityOutcome

	// Decision is the sealed set of instructions a decider may emit from a
	// decision task.
	Decision = internal.Decision

	// ChildProcessResult is the sealed set of terminal results a completed or
	// canceled child process relays to its parent.
	ChildProcessResult = internal.ChildProcessResult

	// ProcessObserver lets a caller watch process lifecycle transitions
	// without polling the store.
	ProcessObserver = internal.ProcessObserver

	// TrailingDecisionPolicy controls what happens to decisions emitted after
	// a process-terminating decision within the same batch.
	TrailingDecisionPolicy = internal.TrailingDecisionPolicy

	// OrchestratorError is the error type the public operations return for
	// unknown processes, activities and decisions.
	OrchestratorError = internal.OrchestratorError

	// ErrorKind identifies the taxonomy of errors OrchestratorError can carry.
	ErrorKind = internal.ErrorKind
)

// Activity outcome variants.
type (
	ActivityCompleted = internal.ActivityCompleted
	ActivityCanceled  = internal.ActivityCanceled
	ActivityTimedOut  = internal.ActivityTimedOut
	ActivityFailed    = internal.ActivityFailed
)

// Child process result variants.
type (
	ProcessCompleted = internal.ProcessCompleted
	ProcessCanceled  = internal.ProcessCanceled
)

// Decision variants a decider may return from CompleteDecisionTask.
type (
	ScheduleActivity  = internal.ScheduleActivity
	CancelActivity    = internal.CancelActivity
	StartChildProcess = internal.StartChildProcess
	Timer             = internal.Timer
	CompleteProcess   = internal.CompleteProcess
	CancelProcess     = internal.CancelProcess
)

// Event types.
const (
	EventTypeProcessStarted   = internal.EventTypeProcessStarted
	EventTypeDecisionStarted  = internal.EventTypeDecisionStarted
	EventTypeDecisionEvent    = internal.EventTypeDecisionEvent
	EventTypeActivityStarted  = internal.EventTypeActivityStarted
	EventTypeActivityEvent    = internal.EventTypeActivityEvent
	EventTypeSignalEvent      = internal.EventTypeSignalEvent
	EventTypeTimerEvent       = internal.EventTypeTimerEvent
	EventTypeChildProcessEvent = internal.EventTypeChildProcessEvent
)

// Error kinds.
const (
	ErrKindUnknownProcess  = internal.ErrKindUnknownProcess
	ErrKindUnknownActivity = internal.ErrKindUnknownActivity
	ErrKindUnknownDecision = internal.ErrKindUnknownDecision
	ErrKindTimedOut        = internal.ErrKindTimedOut
)

// Trailing decision policies.
const (
	TrailingDecisionIgnore = internal.TrailingDecisionIgnore
	TrailingDecisionWarn   = internal.TrailingDecisionWarn
)

// New constructs an Orchestrator with the given defaults applied to every
// workflow/activity registered against it.
func New(defaults Defaults) *Orchestrator {
	return internal.NewBackend(defaults)
}
