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

import "time"

// processStore is the engine's table of live processes, keyed by id. It
// owns no scheduling state of its own - that lives in activityQueues and
// decisionQueues - it only owns identity and history, the same split
// backend.py draws between its process dict and its scheduling deques.
type processStore struct {
	processes map[string]*Process
	children  map[string][]string // parentID -> child process ids, oldest first
}

func newProcessStore() *processStore {
	return &processStore{
		processes: make(map[string]*Process),
		children:  make(map[string][]string),
	}
}

func (s *processStore) create(p *Process) {
	s.processes[p.ID] = p
	if p.HasParent() {
		s.children[p.ParentID] = append(s.children[p.ParentID], p.ID)
	}
}

func (s *processStore) get(id string) (*Process, bool) {
	p, ok := s.processes[id]
	return p, ok
}

// remove deletes id from the store - a process exists in the store iff it
// is live (SPEC_FULL.md §3), so CompleteProcess/CancelProcess call this
// once they are done reading the process's final fields. It also splices
// id out of its parent's child list and drops its own child list, so a
// later childrenOf call never yields an id that is no longer live.
func (s *processStore) remove(id string) {
	p, ok := s.processes[id]
	if !ok {
		return
	}
	delete(s.processes, id)
	delete(s.children, id)
	if !p.HasParent() {
		return
	}
	siblings := s.children[p.ParentID]
	for i, childID := range siblings {
		if childID == id {
			s.children[p.ParentID] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
}

// appendEvent appends evt to the named process's history, reporting whether
// the process exists.
func (s *processStore) appendEvent(id string, evt Event) bool {
	p, ok := s.processes[id]
	if !ok {
		return false
	}
	p.append(evt)
	return true
}

// childrenOf returns the ids of processes started as children of id, oldest
// first, used to cascade cancellation down a process tree.
func (s *processStore) childrenOf(id string) []string {
	return s.children[id]
}

// list returns a buffered, already-populated and closed channel of
// snapshots matching filter (or all processes, if filter is nil). Every
// matching process is snapshotted before list returns, so the caller can
// range over the results without holding any lock.
func (s *processStore) list(filter func(*Process) bool) <-chan Process {
	ch := make(chan Process, len(s.processes))
	for _, p := range s.processes {
		if filter != nil && !filter(p) {
			continue
		}
		ch <- p.Snapshot()
	}
	close(ch)
	return ch
}

func (s *processStore) count() int {
	return len(s.processes)
}

// startNewProcess creates and registers a new process from template, used
// identically by the Dispatcher's top-level StartProcess and by the
// Decision Interpreter's StartChildProcess handling - backend.py shares the
// same start_process body between both entry points via _managed_process.
func startNewProcess(store *processStore, reg *registry, ids *idGenerator, decisions *decisionQueues, now time.Time, template ProcessTemplate, parentID string) *Process {
	wf := reg.workflow(template.Workflow)

	id := template.ID
	if id == "" {
		id = ids.newProcessID()
	}
	cronSchedule := template.CronSchedule
	if cronSchedule == "" {
		cronSchedule = wf.CronSchedule
	}

	p := &Process{
		ID:           id,
		Workflow:     template.Workflow,
		Input:        template.Input,
		Tags:         tagSet(template.Tags),
		ParentID:     parentID,
		CronSchedule: cronSchedule,
		Memo:         template.Memo,
	}
	store.create(p)
	p.append(Event{Type: EventTypeProcessStarted, Attributes: ProcessStartedAttributes{}})
	decisions.schedule(wf.DecisionCategory, p.ID, now, nil, wf.DecisionTimeout)
	return p
}
