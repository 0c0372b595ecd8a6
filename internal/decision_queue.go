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

// decisionEntry is a pending decision-task request for a process. StartAt is
// when it becomes eligible for Poll: equal to ScheduledAt for an ordinary
// wake-up, or ScheduledAt+Timer.Delay for one raised by a Timer decision.
type decisionEntry struct {
	processID       string
	scheduledAt     time.Time
	startAt         time.Time
	timer           *Timer
	scheduleTimeout time.Duration
}

type runningDecision struct {
	processID string
	runID     string
	startedAt time.Time
	timeout   time.Duration
}

// decisionCategory holds one category's pending and in-flight decision
// tasks. The scheduled slice is kept sorted by startAt so Poll only ever
// has to look at index 0, mirroring backend.py's insertion-sorted
// decision deque.
type decisionCategory struct {
	scheduled     []*decisionEntry
	running       map[string]*runningDecision
	pendingNotify map[string]bool // processID -> has a non-timer entry scheduled
}

func newDecisionCategory() *decisionCategory {
	return &decisionCategory{
		running:       make(map[string]*runningDecision),
		pendingNotify: make(map[string]bool),
	}
}

type decisionQueues struct {
	categories map[string]*decisionCategory
}

func newDecisionQueues() *decisionQueues {
	return &decisionQueues{categories: make(map[string]*decisionCategory)}
}

func (q *decisionQueues) category(name string) *decisionCategory {
	c, ok := q.categories[name]
	if !ok {
		c = newDecisionCategory()
		q.categories[name] = c
	}
	return c
}

// schedule inserts a decision-task request for processID. When timer is nil
// this is an ordinary wake-up (new signal, activity completion, process
// start) and is a no-op if an ordinary wake-up is already pending for the
// process, or if one of its timer wake-ups is already due (startAt <= now),
// so a burst of events collapses into a single decision task. A
// Timer-raised wake-up is never deduplicated: a decider may legitimately
// arm several timers in one decision.
func (q *decisionQueues) schedule(category, processID string, now time.Time, timer *Timer, scheduleTimeout time.Duration) bool {
	cat := q.category(category)
	if timer == nil {
		if cat.pendingNotify[processID] {
			return false
		}
		for _, e := range cat.scheduled {
			if e.processID == processID && !e.startAt.After(now) {
				return false
			}
		}
	}
	startAt := now
	if timer != nil {
		startAt = now.Add(timer.Delay)
	}
	entry := &decisionEntry{
		processID:       processID,
		scheduledAt:     now,
		startAt:         startAt,
		timer:           timer,
		scheduleTimeout: scheduleTimeout,
	}
	idx := sort.Search(len(cat.scheduled), func(i int) bool {
		return cat.scheduled[i].startAt.After(startAt)
	})
	cat.scheduled = append(cat.scheduled, nil)
	copy(cat.scheduled[idx+1:], cat.scheduled[idx:])
	cat.scheduled[idx] = entry
	if timer == nil {
		cat.pendingNotify[processID] = true
	}
	return true
}

// cancel removes every scheduled (not yet running) entry for processID,
// mirroring backend.py's _cancel_decision used when a process is canceled
// or completed while decision tasks are still pending for it.
func (q *decisionQueues) cancel(category, processID string) {
	cat := q.categories[category]
	if cat == nil {
		return
	}
	kept := cat.scheduled[:0]
	for _, e := range cat.scheduled {
		if e.processID == processID {
			continue
		}
		kept = append(kept, e)
	}
	cat.scheduled = kept
	delete(cat.pendingNotify, processID)
}

// poll removes and returns the earliest ready entry (startAt <= now), if
// any, moving it to running under runID.
func (q *decisionQueues) poll(category, runID string, now time.Time, timeout time.Duration) (string, *Timer, bool) {
	cat := q.category(category)
	if len(cat.scheduled) == 0 {
		return "", nil, false
	}
	front := cat.scheduled[0]
	if front.startAt.After(now) {
		return "", nil, false
	}
	cat.scheduled = cat.scheduled[1:]
	if front.timer == nil {
		delete(cat.pendingNotify, front.processID)
	}
	cat.running[runID] = &runningDecision{
		processID: front.processID,
		runID:     runID,
		startedAt: now,
		timeout:   timeout,
	}
	return front.processID, front.timer, true
}

// complete removes a running decision by runID.
func (q *decisionQueues) complete(category, runID string) (string, bool) {
	cat := q.categories[category]
	if cat == nil {
		return "", false
	}
	r, ok := cat.running[runID]
	if !ok {
		return "", false
	}
	delete(cat.running, runID)
	return r.processID, true
}

// sweepRunningTimeouts evicts running decision tasks whose decider never
// completed them in time, returning the owning process ids in running-table
// iteration order (backend.py walks running decisions before scheduled
// ones in its timeout pass).
func (q *decisionQueues) sweepRunningTimeouts(now time.Time) []string {
	var out []string
	for _, cat := range q.categories {
		for runID, r := range cat.running {
			if now.Before(r.startedAt.Add(r.timeout)) {
				continue
			}
			delete(cat.running, runID)
			out = append(out, r.processID)
		}
	}
	return out
}

// sweepScheduledTimeouts evicts scheduled decision entries that became
// ready but were never polled within their schedule timeout, oldest-ready
// first.
func (q *decisionQueues) sweepScheduledTimeouts(now time.Time) []string {
	var out []string
	for _, cat := range q.categories {
		var kept []*decisionEntry
		for _, e := range cat.scheduled {
			// Timer entries have no scheduled-expiry (SPEC_FULL.md §3/§4.4):
			// a decider may legitimately arm a timer far in the future, and
			// it must still fire exactly once (P6) however long it waits.
			if e.timer != nil {
				kept = append(kept, e)
				continue
			}
			if e.startAt.After(now) || now.Before(e.startAt.Add(e.scheduleTimeout)) {
				kept = append(kept, e)
				continue
			}
			delete(cat.pendingNotify, e.processID)
			out = append(out, e.processID)
		}
		cat.scheduled = kept
	}
	return out
}

func (q *decisionQueues) depth(category string) int {
	cat := q.categories[category]
	if cat == nil {
		return 0
	}
	return len(cat.scheduled)
}
