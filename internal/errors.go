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

import "fmt"

// ErrorKind identifies the taxonomy of errors the backend can surface
// synchronously to a caller.
type ErrorKind int

const (
	// ErrKindUnknownProcess means the process-id is not in the store.
	ErrKindUnknownProcess ErrorKind = iota
	// ErrKindUnknownActivity means the run-id is not in the running-activities table.
	ErrKindUnknownActivity
	// ErrKindUnknownDecision means the run-id is not in the running-decisions table.
	ErrKindUnknownDecision
	// ErrKindTimedOut is reserved for a future synchronous timeout notification.
	// The in-memory backend never raises it; the sweeper records timeouts as
	// history events instead. Exported so a future durable backend can reuse it.
	ErrKindTimedOut
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindUnknownProcess:
		return "UnknownProcess"
	case ErrKindUnknownActivity:
		return "UnknownActivity"
	case ErrKindUnknownDecision:
		return "UnknownDecision"
	case ErrKindTimedOut:
		return "TimedOut"
	default:
		return "Unknown"
	}
}

// OrchestratorError is the error type the public operations return for the
// kinds above; the only other error is the joined TrailingDecisionWarn
// warning from CompleteDecisionTask. Its Kind selects the variant and ID
// carries whichever identifier (process-id or run-id) was not found.
type OrchestratorError struct {
	Kind ErrorKind
	ID   string
}

func (e *OrchestratorError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.ID)
}

// NewUnknownProcessError returns an OrchestratorError for a process-id that
// is not present in the process store.
func NewUnknownProcessError(processID string) *OrchestratorError {
	return &OrchestratorError{Kind: ErrKindUnknownProcess, ID: processID}
}

// NewUnknownActivityError returns an OrchestratorError for a run-id that is
// not present in the running-activities table.
func NewUnknownActivityError(runID string) *OrchestratorError {
	return &OrchestratorError{Kind: ErrKindUnknownActivity, ID: runID}
}

// NewUnknownDecisionError returns an OrchestratorError for a run-id that is
// not present in the running-decisions table.
func NewUnknownDecisionError(runID string) *OrchestratorError {
	return &OrchestratorError{Kind: ErrKindUnknownDecision, ID: runID}
}

// illegalStatePanic mirrors the teacher SDK's stateMachineIllegalStatePanic:
// a decision referencing an unregistered workflow/activity name is a decider
// programming error, not a recoverable runtime condition, so it panics
// instead of returning an error (spec.md §7 leaves this undefined).
type illegalStatePanic struct {
	message string
}

func (p illegalStatePanic) String() string {
	return p.message
}

func panicIllegalState(format string, args ...interface{}) {
	panic(illegalStatePanic{message: fmt.Sprintf(format, args...)})
}
