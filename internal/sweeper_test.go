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
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

func newTestSweeper(t *testing.T, mockClock *clock.Mock) (*sweeper, *activityQueues, *decisionQueues, *processStore, *registry) {
	t.Helper()
	reg := newRegistry(Defaults{DecisionCategory: "decisions", DecisionTimeout: time.Minute})
	reg.registerWorkflow(WorkflowDescriptor{Name: "greet"})
	activities := newActivityQueues()
	decisions := newDecisionQueues()
	processes := newProcessStore()
	s := newSweeper(activities, decisions, processes, reg, mockClock, zap.NewNop(), tally.NoopScope)
	return s, activities, decisions, processes, reg
}

func Test_sweeper_Sweep_evictsScheduledActivityAndWakesProcess(t *testing.T) {
	mockClock := clock.NewMock()
	s, activities, decisions, processes, _ := newTestSweeper(t, mockClock)

	processes.create(&Process{ID: "p1", Workflow: "greet"})
	activities.schedule("work", "p1", ActivityExecution{ActivityName: "send", ID: "a1"}, time.Minute, time.Minute, time.Minute, mockClock.Now())

	mockClock.Add(2 * time.Minute)
	s.Sweep()

	p, _ := processes.get("p1")
	require.Len(t, p.History, 1)
	attrs, ok := p.History[0].Attributes.(ActivityEventAttributes)
	require.True(t, ok)
	assert.IsType(t, ActivityTimedOut{}, attrs.Outcome)
	assert.Equal(t, 1, decisions.depth("decisions"))
}

func Test_sweeper_Sweep_evictsRunningActivity(t *testing.T) {
	mockClock := clock.NewMock()
	s, activities, _, processes, _ := newTestSweeper(t, mockClock)

	processes.create(&Process{ID: "p1", Workflow: "greet"})
	activities.schedule("work", "p1", ActivityExecution{ID: "a1"}, time.Hour, time.Hour, time.Hour, mockClock.Now())
	_, _ = activities.poll("work", "run-1", mockClock.Now())

	mockClock.Add(2 * time.Hour)
	s.Sweep()

	_, _, found := activities.lookupByID("p1", "a1")
	assert.False(t, found)
}

func Test_sweeper_Sweep_evictsRunningDecision(t *testing.T) {
	mockClock := clock.NewMock()
	s, _, decisions, processes, _ := newTestSweeper(t, mockClock)

	processes.create(&Process{ID: "p1", Workflow: "greet"})
	decisions.schedule("decisions", "p1", mockClock.Now(), nil, time.Minute)
	_, _, _ = decisions.poll("decisions", "run-1", mockClock.Now(), time.Minute)

	mockClock.Add(2 * time.Minute)
	s.Sweep()

	assert.Equal(t, 1, decisions.depth("decisions"))
}

func Test_sweeper_wakeProcess_noopForMissingProcess(t *testing.T) {
	mockClock := clock.NewMock()
	s, _, decisions, _, _ := newTestSweeper(t, mockClock)

	s.wakeProcess("nope")
	assert.Equal(t, 0, decisions.depth("decisions"))
}

func Test_sweeper_RunPeriodic_sweepsUntilCanceled(t *testing.T) {
	mockClock := clock.NewMock()
	s, activities, _, processes, _ := newTestSweeper(t, mockClock)
	processes.create(&Process{ID: "p1", Workflow: "greet"})
	activities.schedule("work", "p1", ActivityExecution{ID: "a1"}, time.Millisecond, time.Millisecond, time.Millisecond, mockClock.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	swept := make(chan struct{}, 1)

	go func() {
		s.RunPeriodic(ctx, time.Millisecond, func(f func()) {
			f()
			select {
			case swept <- struct{}{}:
			default:
			}
		})
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("expected at least one sweep before timeout")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not return after cancel")
	}
}
