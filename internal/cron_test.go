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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func Test_cronScheduler_ContinueIfScheduled_noopWithoutSchedule(t *testing.T) {
	reg := newRegistry(Defaults{})
	reg.registerWorkflow(WorkflowDescriptor{Name: "greet"})
	processes := newProcessStore()
	decisions := newDecisionQueues()
	cs := newCronScheduler(processes, reg, newIDGenerator(), decisions, zap.NewNop())

	p := &Process{ID: "p1", Workflow: "greet"}
	cs.ContinueIfScheduled(p, time.Now())

	assert.Equal(t, 0, processes.count())
}

func Test_cronScheduler_ContinueIfScheduled_startsIndependentContinuation(t *testing.T) {
	reg := newRegistry(Defaults{DecisionCategory: "decisions", DecisionTimeout: time.Minute})
	reg.registerWorkflow(WorkflowDescriptor{Name: "nightly"})
	processes := newProcessStore()
	decisions := newDecisionQueues()
	cs := newCronScheduler(processes, reg, newIDGenerator(), decisions, zap.NewNop())

	memo := map[string]string{"owner": "billing"}
	p := &Process{ID: "run-1", Workflow: "nightly", CronSchedule: "@hourly", Input: "payload", Memo: memo}
	now := time.Now()

	cs.ContinueIfScheduled(p, now)

	require.Equal(t, 1, processes.count())
	var continuation *Process
	for cand := range processes.list(nil) {
		c := cand
		continuation = &c
	}
	require.NotNil(t, continuation)
	assert.NotEqual(t, "run-1", continuation.ID)
	assert.Empty(t, continuation.ParentID, "a cron continuation is an independent top-level process, not a child")
	assert.Equal(t, "payload", continuation.Input)
	assert.Equal(t, "billing", continuation.Memo["owner"])
	require.Len(t, continuation.History, 1)
	assert.Equal(t, EventTypeProcessStarted, continuation.History[0].Type)
	assert.Equal(t, 1, decisions.depth("decisions"))
}

func Test_cronScheduler_ContinueIfScheduled_gatesFirstDecisionBehindTimer(t *testing.T) {
	reg := newRegistry(Defaults{DecisionCategory: "decisions", DecisionTimeout: time.Minute})
	reg.registerWorkflow(WorkflowDescriptor{Name: "nightly"})
	processes := newProcessStore()
	decisions := newDecisionQueues()
	cs := newCronScheduler(processes, reg, newIDGenerator(), decisions, zap.NewNop())

	p := &Process{ID: "run-1", Workflow: "nightly", CronSchedule: "@hourly"}
	now := time.Now()
	cs.ContinueIfScheduled(p, now)

	_, _, ready := decisions.poll("decisions", "run-x", now, time.Minute)
	assert.False(t, ready, "the continuation's decision task should not be ready until the next cron fire time")

	_, _, ready = decisions.poll("decisions", "run-x", now.Add(time.Hour+time.Minute), time.Minute)
	assert.True(t, ready)
}

func Test_cronScheduler_ContinueIfScheduled_invalidScheduleIsIgnored(t *testing.T) {
	reg := newRegistry(Defaults{})
	reg.registerWorkflow(WorkflowDescriptor{Name: "greet"})
	processes := newProcessStore()
	decisions := newDecisionQueues()
	cs := newCronScheduler(processes, reg, newIDGenerator(), decisions, zap.NewNop())

	p := &Process{ID: "p1", Workflow: "greet", CronSchedule: "not-a-schedule"}
	cs.ContinueIfScheduled(p, time.Now())

	assert.Equal(t, 0, processes.count())
}
