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
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"

	"go.uber.org/orchestrator/internal/tag"
)

// cronScheduler seeds the next run of a cron-scheduled process once its
// current run completes successfully. SPEC_FULL.md §4.8 adds this on top of
// backend.py, which has no cron concept of its own; a cron-scheduled
// process's continuation is a fresh, independent top-level process (not a
// child) whose first decision task is gated behind a Timer until the next
// scheduled fire time, the same shape Cadence's own cron workflows take.
type cronScheduler struct {
	processes *processStore
	registry  *registry
	ids       *idGenerator
	decisions *decisionQueues
	logger    *zap.Logger
}

func newCronScheduler(processes *processStore, registry *registry, ids *idGenerator, decisions *decisionQueues, logger *zap.Logger) *cronScheduler {
	return &cronScheduler{
		processes: processes,
		registry:  registry,
		ids:       ids,
		decisions: decisions,
		logger:    logger,
	}
}

// ContinueIfScheduled starts the next run of p if p carries a cron schedule.
// A malformed schedule is logged and otherwise ignored rather than failing
// the completion of the run that already happened.
func (cs *cronScheduler) ContinueIfScheduled(p *Process, now time.Time) {
	if p.CronSchedule == "" {
		return
	}
	schedule, err := cron.ParseStandard(p.CronSchedule)
	if err != nil {
		cs.logger.Warn("invalid cron schedule, not continuing",
			tag.Component(tag.ComponentCron),
			tag.ProcessID(p.ID),
			tag.Workflow(p.Workflow),
			zap.String("schedule", p.CronSchedule),
			zap.Error(err),
		)
		return
	}

	wf := cs.registry.workflow(p.Workflow)
	next := schedule.Next(now)

	memo := make(map[string]string, len(p.Memo))
	for k, v := range p.Memo {
		memo[k] = v
	}

	child := &Process{
		ID:           cs.ids.newProcessID(),
		Workflow:     p.Workflow,
		Input:        p.Input,
		Tags:         tagSet(tagList(p.Tags)),
		CronSchedule: p.CronSchedule,
		Memo:         memo,
	}
	cs.processes.create(child)
	child.append(Event{Type: EventTypeProcessStarted, Attributes: ProcessStartedAttributes{}})

	timer := Timer{Delay: next.Sub(now)}
	// Timer entries carry no scheduled-expiry; see armTimer in interpreter.go.
	cs.decisions.schedule(wf.DecisionCategory, child.ID, now, &timer, 0)

	cs.logger.Info("scheduled cron continuation",
		tag.Component(tag.ComponentCron),
		tag.ProcessID(p.ID),
		zap.String("continuation-id", child.ID),
		zap.Time("next-run", next),
	)
}
