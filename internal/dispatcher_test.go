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
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestBackend(t *testing.T, mockClock *clock.Mock) *Backend {
	t.Helper()
	b := NewBackend(Defaults{
		DecisionCategory: "decisions",
		ActivityCategory: "activities",
		DecisionTimeout:  time.Minute,
		ScheduleTimeout:  time.Minute,
		ExecutionTimeout: time.Minute,
		HeartbeatTimeout: time.Minute,
		Clock:            mockClock,
	})
	b.RegisterWorkflow(WorkflowDescriptor{Name: "greet"})
	b.RegisterWorkflow(WorkflowDescriptor{Name: "leaf"})
	b.RegisterActivity(ActivityDescriptor{Name: "send"})
	return b
}

func Test_Backend_StartProcess_appendsProcessStarted(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	id := b.StartProcess(ProcessTemplate{Workflow: "greet"})

	p, ok := b.ProcessByID(id)
	require.True(t, ok)
	require.Len(t, p.History, 1)
	assert.Equal(t, EventTypeProcessStarted, p.History[0].Type)
}

func Test_Backend_StartProcess_panicsOnUnregisteredWorkflow(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	assert.Panics(t, func() { b.StartProcess(ProcessTemplate{Workflow: "nope"}) })
}

func Test_Backend_SignalProcess_wakesDecider(t *testing.T) {
	mockClock := clock.NewMock()
	b := newTestBackend(t, mockClock)
	id := b.StartProcess(ProcessTemplate{Workflow: "greet"})
	task, ok := b.PollDecisionTask("decisions", "")
	require.True(t, ok)
	require.NoError(t, b.CompleteDecisionTask("decisions", task.RunID, nil))

	err := b.SignalProcess(id, Signal{Name: "go", Data: 1})
	require.NoError(t, err)

	next, ok := b.PollDecisionTask("decisions", "")
	require.True(t, ok)
	assert.Equal(t, id, next.Process.ID)
}

func Test_Backend_SignalProcess_unknownProcess(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	err := b.SignalProcess("nope", Signal{Name: "go"})
	require.Error(t, err)
}

func Test_Backend_PollActivityTask_thenCompleteWakesDecider(t *testing.T) {
	mockClock := clock.NewMock()
	b := newTestBackend(t, mockClock)
	id := b.StartProcess(ProcessTemplate{Workflow: "greet"})

	dt, ok := b.PollDecisionTask("decisions", "")
	require.True(t, ok)
	require.NoError(t, b.CompleteDecisionTask("decisions", dt.RunID, []Decision{
		ScheduleActivity{ActivityName: "send", ID: "a1"},
	}))

	at, ok := b.PollActivityTask("activities", "worker-1")
	require.True(t, ok)
	assert.Equal(t, id, at.ProcessID)
	assert.Equal(t, "a1", at.Execution.ID)

	require.NoError(t, b.CompleteActivityTask("activities", at.RunID, ActivityCompleted{Result: "ok"}))

	dt2, ok := b.PollDecisionTask("decisions", "")
	require.True(t, ok)
	assert.Equal(t, id, dt2.Process.ID)
}

func Test_Backend_PollActivityTask_empty(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	_, ok := b.PollActivityTask("activities", "")
	assert.False(t, ok)
}

func Test_Backend_HeartbeatActivityTask_unknownRunID(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	err := b.HeartbeatActivityTask("activities", "nope")
	require.Error(t, err)
}

func Test_Backend_CompleteActivityTask_unknownRunID(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	err := b.CompleteActivityTask("activities", "nope", ActivityCompleted{})
	require.Error(t, err)
}

func Test_Backend_CompleteDecisionTask_unknownRunID(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	err := b.CompleteDecisionTask("decisions", "nope", nil)
	require.Error(t, err)
}

func Test_Backend_CancelProcess_removesFromStore(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	id := b.StartProcess(ProcessTemplate{Workflow: "greet"})

	err := b.CancelProcess(id, "because")
	require.NoError(t, err)

	_, ok := b.ProcessByID(id)
	assert.False(t, ok)
}

func Test_Backend_CancelProcess_unknownProcess(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	err := b.CancelProcess("nope", nil)
	require.Error(t, err)
}

func Test_Backend_Processes_filtersByTag(t *testing.T) {
	b := newTestBackend(t, clock.NewMock())
	b.StartProcess(ProcessTemplate{Workflow: "greet", Tags: []string{"urgent"}})
	b.StartProcess(ProcessTemplate{Workflow: "greet"})

	var count int
	for range b.Processes("urgent") {
		count++
	}
	assert.Equal(t, 1, count)
}

func Test_Backend_sweepsOverdueActivityOnEveryCall(t *testing.T) {
	mockClock := clock.NewMock()
	b := newTestBackend(t, mockClock)
	id := b.StartProcess(ProcessTemplate{Workflow: "greet"})
	dt, ok := b.PollDecisionTask("decisions", "")
	require.True(t, ok)
	require.NoError(t, b.CompleteDecisionTask("decisions", dt.RunID, []Decision{
		ScheduleActivity{ActivityName: "send", ID: "a1"},
	}))

	mockClock.Add(2 * time.Minute)
	// any subsequent start, signal, cancel, poll, heartbeat or complete call
	// sweeps inline; StartProcess of an unrelated process is as good a
	// trigger as any.
	b.StartProcess(ProcessTemplate{Workflow: "greet"})

	p, ok := b.ProcessByID(id)
	require.True(t, ok)
	var sawTimeout bool
	for _, evt := range p.History {
		if attrs, ok := evt.Attributes.(ActivityEventAttributes); ok {
			if _, ok := attrs.Outcome.(ActivityTimedOut); ok {
				sawTimeout = true
			}
		}
	}
	assert.True(t, sawTimeout)
}

func Test_Backend_allowPoll_throttlesPerCategory(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	b := NewBackend(Defaults{
		DecisionCategory: "decisions",
		PollLimiters:     map[string]*rate.Limiter{"decisions": limiter},
	})
	b.RegisterWorkflow(WorkflowDescriptor{Name: "greet"})
	b.StartProcess(ProcessTemplate{Workflow: "greet"})

	_, ok := b.PollDecisionTask("decisions", "")
	assert.True(t, ok, "first poll should consume the single token")

	_, ok = b.PollDecisionTask("decisions", "")
	assert.False(t, ok, "second poll should be throttled before it ever touches the queue")
}

func Test_Backend_PollDecisionTask_timerRaisedWakeupAppendsTimerEvent(t *testing.T) {
	mockClock := clock.NewMock()
	b := newTestBackend(t, mockClock)
	id := b.StartProcess(ProcessTemplate{Workflow: "greet"})
	dt, ok := b.PollDecisionTask("decisions", "")
	require.True(t, ok)
	require.NoError(t, b.CompleteDecisionTask("decisions", dt.RunID, []Decision{
		Timer{ID: "t1", Delay: time.Minute},
	}))

	_, ok = b.PollDecisionTask("decisions", "")
	assert.False(t, ok, "timer has not fired yet")

	mockClock.Add(time.Minute)
	dt2, ok := b.PollDecisionTask("decisions", "")
	require.True(t, ok)
	assert.Equal(t, id, dt2.Process.ID)

	var sawTimer bool
	for _, evt := range dt2.Process.History {
		if evt.Type == EventTypeTimerEvent {
			sawTimer = true
		}
	}
	assert.True(t, sawTimer)
}
