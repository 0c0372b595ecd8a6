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
)

func Test_processStore_createAndGet(t *testing.T) {
	s := newProcessStore()
	p := &Process{ID: "p1", Workflow: "greet"}
	s.create(p)

	got, ok := s.get("p1")
	require.True(t, ok)
	assert.Equal(t, "greet", got.Workflow)
	assert.Equal(t, 1, s.count())
}

func Test_processStore_get_missing(t *testing.T) {
	s := newProcessStore()
	_, ok := s.get("nope")
	assert.False(t, ok)
}

func Test_processStore_childrenOf(t *testing.T) {
	s := newProcessStore()
	s.create(&Process{ID: "parent", Workflow: "root"})
	s.create(&Process{ID: "child-a", Workflow: "leaf", ParentID: "parent"})
	s.create(&Process{ID: "child-b", Workflow: "leaf", ParentID: "parent"})

	assert.Equal(t, []string{"child-a", "child-b"}, s.childrenOf("parent"))
	assert.Empty(t, s.childrenOf("child-a"))
}

func Test_processStore_remove_deletesAndSplicesFromParent(t *testing.T) {
	s := newProcessStore()
	s.create(&Process{ID: "parent", Workflow: "root"})
	s.create(&Process{ID: "child-a", Workflow: "leaf", ParentID: "parent"})
	s.create(&Process{ID: "child-b", Workflow: "leaf", ParentID: "parent"})

	s.remove("child-a")

	_, ok := s.get("child-a")
	assert.False(t, ok)
	assert.Equal(t, []string{"child-b"}, s.childrenOf("parent"))
	assert.Equal(t, 2, s.count())
}

func Test_processStore_remove_ofMissingProcessIsNoop(t *testing.T) {
	s := newProcessStore()
	s.create(&Process{ID: "p1", Workflow: "greet"})
	s.remove("nope")
	assert.Equal(t, 1, s.count())
}

func Test_processStore_appendEvent(t *testing.T) {
	s := newProcessStore()
	s.create(&Process{ID: "p1", Workflow: "greet"})

	ok := s.appendEvent("p1", Event{Type: EventTypeSignalEvent})
	require.True(t, ok)

	p, _ := s.get("p1")
	require.Len(t, p.History, 1)
	assert.Equal(t, EventTypeSignalEvent, p.History[0].Type)
}

func Test_processStore_appendEvent_missingProcess(t *testing.T) {
	s := newProcessStore()
	ok := s.appendEvent("nope", Event{Type: EventTypeSignalEvent})
	assert.False(t, ok)
}

func Test_processStore_list_filtersByTag(t *testing.T) {
	s := newProcessStore()
	s.create(&Process{ID: "p1", Workflow: "greet", Tags: tagSet([]string{"urgent"})})
	s.create(&Process{ID: "p2", Workflow: "greet"})

	var ids []string
	for p := range s.list(func(p *Process) bool { return p.HasTag("urgent") }) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p1"}, ids)
}

func Test_processStore_list_nilFilterReturnsAll(t *testing.T) {
	s := newProcessStore()
	s.create(&Process{ID: "p1", Workflow: "greet"})
	s.create(&Process{ID: "p2", Workflow: "greet"})

	count := 0
	for range s.list(nil) {
		count++
	}
	assert.Equal(t, 2, count)
}

func Test_startNewProcess_defaultsIDAndCronSchedule(t *testing.T) {
	reg := newRegistry(Defaults{DecisionCategory: "cat", DecisionTimeout: time.Second})
	reg.registerWorkflow(WorkflowDescriptor{Name: "greet", CronSchedule: "@daily"})
	store := newProcessStore()
	ids := newIDGenerator()
	decisions := newDecisionQueues()
	now := clock.NewMock().Now()

	p := startNewProcess(store, reg, ids, decisions, now, ProcessTemplate{Workflow: "greet"}, "")

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "@daily", p.CronSchedule)
	require.Len(t, p.History, 1)
	assert.Equal(t, EventTypeProcessStarted, p.History[0].Type)
	assert.Equal(t, 1, decisions.depth("cat"))
}

func Test_startNewProcess_honorsExplicitID(t *testing.T) {
	reg := newRegistry(Defaults{})
	reg.registerWorkflow(WorkflowDescriptor{Name: "greet"})
	store := newProcessStore()
	ids := newIDGenerator()
	decisions := newDecisionQueues()

	p := startNewProcess(store, reg, ids, decisions, time.Now(), ProcessTemplate{ID: "fixed-id", Workflow: "greet"}, "")

	assert.Equal(t, "fixed-id", p.ID)
}

func Test_startNewProcess_setsParentID(t *testing.T) {
	reg := newRegistry(Defaults{})
	reg.registerWorkflow(WorkflowDescriptor{Name: "leaf"})
	store := newProcessStore()
	ids := newIDGenerator()
	decisions := newDecisionQueues()

	child := startNewProcess(store, reg, ids, decisions, time.Now(), ProcessTemplate{Workflow: "leaf"}, "parent-1")

	assert.Equal(t, "parent-1", child.ParentID)
	assert.Equal(t, []string{child.ID}, store.childrenOf("parent-1"))
}

func Test_startNewProcess_panicsOnUnregisteredWorkflow(t *testing.T) {
	reg := newRegistry(Defaults{})
	store := newProcessStore()
	ids := newIDGenerator()
	decisions := newDecisionQueues()

	assert.Panics(t, func() {
		startNewProcess(store, reg, ids, decisions, time.Now(), ProcessTemplate{Workflow: "nope"}, "")
	})
}
