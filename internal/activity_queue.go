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
	"container/list"
	"time"
)

// activityKey identifies an activity execution by the id the decider chose
// for it, scoped to its owning process - the same key backend.py's
// _activity_by_id searches on.
type activityKey struct {
	processID  string
	activityID string
}

type scheduledActivity struct {
	key              activityKey
	execution        ActivityExecution
	scheduledAt      time.Time
	scheduleTimeout  time.Duration
	executionTimeout time.Duration
	heartbeatTimeout time.Duration
}

// runningActivity tracks the two independent deadlines a polled activity is
// subject to (SPEC_FULL.md §3/§4.3): executionExpiry bounds the entire run
// from poll to completion and never moves, while heartbeatExpiry bounds the
// gap between heartbeats and is refreshed on every Heartbeat call.
// heartbeatTimeout is retained so a heartbeat can recompute heartbeatExpiry
// without consulting the registry again.
type runningActivity struct {
	key              activityKey
	execution        ActivityExecution
	runID            string
	executionExpiry  time.Time
	heartbeatTimeout time.Duration
	heartbeatExpiry  time.Time
}

// timedOutActivity is what the sweeper hands back for each activity it
// evicted, enough for the Dispatcher to append an ActivityEvent.
type timedOutActivity struct {
	key       activityKey
	execution ActivityExecution
}

// activityCategory is the FIFO-scheduled / running state for one category,
// mirroring the two per-category deques backend.py keeps
// (_scheduled_activities, _running_activities).
type activityCategory struct {
	scheduled *list.List // of *scheduledActivity, oldest-first
	running   map[string]*runningActivity
}

func newActivityCategory() *activityCategory {
	return &activityCategory{
		scheduled: list.New(),
		running:   make(map[string]*runningActivity),
	}
}

// activityQueues owns every category's activity scheduling state plus a
// cross-category index so CancelActivity decisions - which name an id but
// not a category - resolve in O(1), the same lookup backend.py does with a
// plain dict keyed by (process_id, activity_id).
type activityQueues struct {
	categories map[string]*activityCategory
	index      map[activityKey]*activityLocation
}

type activityLocation struct {
	category string
	elem     *list.Element // set while scheduled, nil once running
	runID    string        // set while running, "" while scheduled
}

func newActivityQueues() *activityQueues {
	return &activityQueues{
		categories: make(map[string]*activityCategory),
		index:      make(map[activityKey]*activityLocation),
	}
}

func (q *activityQueues) category(name string) *activityCategory {
	c, ok := q.categories[name]
	if !ok {
		c = newActivityCategory()
		q.categories[name] = c
	}
	return c
}

// schedule enqueues a new activity execution. Mirrors backend.py's
// _schedule_activity: append to the category's deque and index by id.
// executionTimeout and heartbeatTimeout are carried forward from the
// activity's descriptor so poll can install both running deadlines without
// a second registry lookup.
func (q *activityQueues) schedule(category string, processID string, execution ActivityExecution, scheduleTimeout, executionTimeout, heartbeatTimeout time.Duration, now time.Time) {
	key := activityKey{processID: processID, activityID: execution.ID}
	entry := &scheduledActivity{
		key:              key,
		execution:        execution,
		scheduledAt:      now,
		scheduleTimeout:  scheduleTimeout,
		executionTimeout: executionTimeout,
		heartbeatTimeout: heartbeatTimeout,
	}
	elem := q.category(category).scheduled.PushBack(entry)
	q.index[key] = &activityLocation{category: category, elem: elem}
}

// lookupByID reports the execution for a (processID, activityID) pair,
// searching running executions before scheduled ones - backend.py's
// _activity_by_id does the same, since a decider cancelling a long-running
// activity cares about the one actually in flight.
func (q *activityQueues) lookupByID(processID, activityID string) (ActivityExecution, bool, bool) {
	key := activityKey{processID: processID, activityID: activityID}
	loc, ok := q.index[key]
	if !ok {
		return ActivityExecution{}, false, false
	}
	cat := q.categories[loc.category]
	if loc.runID != "" {
		if r, ok := cat.running[loc.runID]; ok {
			return r.execution, true, true
		}
	}
	if loc.elem != nil {
		return loc.elem.Value.(*scheduledActivity).execution, false, true
	}
	return ActivityExecution{}, false, false
}

// cancelByID removes a scheduled-or-running activity by id, returning the
// execution removed and whether anything was found.
func (q *activityQueues) cancelByID(processID, activityID string) (ActivityExecution, bool) {
	key := activityKey{processID: processID, activityID: activityID}
	loc, ok := q.index[key]
	if !ok {
		return ActivityExecution{}, false
	}
	cat := q.categories[loc.category]
	delete(q.index, key)
	if loc.runID != "" {
		r, ok := cat.running[loc.runID]
		if !ok {
			return ActivityExecution{}, false
		}
		delete(cat.running, loc.runID)
		return r.execution, true
	}
	if loc.elem != nil {
		entry := loc.elem.Value.(*scheduledActivity)
		cat.scheduled.Remove(loc.elem)
		return entry.execution, true
	}
	return ActivityExecution{}, false
}

// poll pops the oldest scheduled activity in category, if any, and moves it
// to running under runID. Mirrors backend.py's poll_activity_task.
func (q *activityQueues) poll(category string, runID string, now time.Time) (ActivityTask, bool) {
	cat := q.category(category)
	front := cat.scheduled.Front()
	if front == nil {
		return ActivityTask{}, false
	}
	entry := front.Value.(*scheduledActivity)
	cat.scheduled.Remove(front)

	running := &runningActivity{
		key:              entry.key,
		execution:        entry.execution,
		runID:            runID,
		executionExpiry:  now.Add(entry.executionTimeout),
		heartbeatTimeout: entry.heartbeatTimeout,
		heartbeatExpiry:  now.Add(entry.heartbeatTimeout),
	}
	cat.running[runID] = running
	q.index[entry.key] = &activityLocation{category: category, runID: runID}

	return ActivityTask{
		Execution: entry.execution,
		ProcessID: entry.key.processID,
		RunID:     runID,
	}, true
}

// heartbeat refreshes a running activity's heartbeat-expiry only; its
// execution-expiry is untouched, so a heartbeating worker can never outrun
// its execution timeout (backend.py:151-159). Reports whether runID is
// still running.
func (q *activityQueues) heartbeat(category string, runID string, now time.Time) bool {
	cat := q.categories[category]
	if cat == nil {
		return false
	}
	r, ok := cat.running[runID]
	if !ok {
		return false
	}
	r.heartbeatExpiry = now.Add(r.heartbeatTimeout)
	return true
}

// complete removes a running activity by runID, returning its key and
// execution for the caller to append an ActivityEvent with.
func (q *activityQueues) complete(category string, runID string) (activityKey, ActivityExecution, bool) {
	cat := q.categories[category]
	if cat == nil {
		return activityKey{}, ActivityExecution{}, false
	}
	r, ok := cat.running[runID]
	if !ok {
		return activityKey{}, ActivityExecution{}, false
	}
	delete(cat.running, runID)
	delete(q.index, r.key)
	return r.key, r.execution, true
}

// sweepScheduledTimeouts evicts scheduled activities whose schedule-to-start
// timeout has elapsed as of now, oldest first - the order backend.py's
// _time_out_activities walks the deque in.
func (q *activityQueues) sweepScheduledTimeouts(now time.Time) []timedOutActivity {
	var out []timedOutActivity
	for _, cat := range q.categories {
		var next *list.Element
		for elem := cat.scheduled.Front(); elem != nil; elem = next {
			next = elem.Next()
			entry := elem.Value.(*scheduledActivity)
			if now.Before(entry.scheduledAt.Add(entry.scheduleTimeout)) {
				continue
			}
			cat.scheduled.Remove(elem)
			delete(q.index, entry.key)
			out = append(out, timedOutActivity{key: entry.key, execution: entry.execution})
		}
	}
	return out
}

// sweepRunningTimeouts evicts running activities whose execution-expiry or
// heartbeat-expiry has elapsed as of now, whichever comes first
// (backend.py's _time_out_activities).
func (q *activityQueues) sweepRunningTimeouts(now time.Time) []timedOutActivity {
	var out []timedOutActivity
	for _, cat := range q.categories {
		for runID, r := range cat.running {
			if now.Before(r.executionExpiry) && now.Before(r.heartbeatExpiry) {
				continue
			}
			delete(cat.running, runID)
			delete(q.index, r.key)
			out = append(out, timedOutActivity{key: r.key, execution: r.execution})
		}
	}
	return out
}

// purgeProcess removes every scheduled and running entry belonging to
// processID, with no history event emitted - used when a process is
// completed or cancelled, since I7 forbids any queue entry from
// outliving the process it references.
func (q *activityQueues) purgeProcess(processID string) {
	for key, loc := range q.index {
		if key.processID != processID {
			continue
		}
		cat := q.categories[loc.category]
		if loc.runID != "" {
			delete(cat.running, loc.runID)
		} else if loc.elem != nil {
			cat.scheduled.Remove(loc.elem)
		}
		delete(q.index, key)
	}
}

// depth returns the scheduled queue depth for category, used for the
// point-in-time ActivityQueueDepthGauge sample.
func (q *activityQueues) depth(category string) int {
	cat := q.categories[category]
	if cat == nil {
		return 0
	}
	return cat.scheduled.Len()
}
