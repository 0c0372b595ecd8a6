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

// Package metrics holds the tally metric names the engine emits, the way the
// cadence server's common/metrics package centralizes its scope/counter
// names instead of scattering string literals through the handlers.
package metrics

// Counters emitted by the Dispatcher, Sweeper and Decision Interpreter. All
// are emitted untagged on the configured scope; there is no per-category
// breakdown.
const (
	ProcessesStartedCounter    = "processes.started"
	ProcessesCompletedCounter  = "processes.completed"
	ProcessesCanceledCounter   = "processes.canceled"
	SignalsDeliveredCounter    = "signals.delivered"
	ActivitiesScheduledCounter = "activities.scheduled"
	ActivitiesCompletedCounter = "activities.completed"
	ActivitiesFailedCounter    = "activities.failed"
	ActivitiesCanceledCounter  = "activities.canceled"
	DecisionsScheduledCounter  = "decisions.scheduled"
	DecisionsCompletedCounter  = "decisions.completed"
	TimersFiredCounter         = "timers.fired"
	SweepTimeoutsCounter       = "sweep.timeouts"
	PollEmptyCounter           = "poll.empty"
	PollHitCounter             = "poll.hit"
)

// Gauges report a category's scheduled-queue depth, sampled only when a poll
// hands out a task from it. They are a point-in-time sample, not a
// continuously maintained gauge.
const (
	ActivityQueueDepthGauge = "activities.queue-depth"
	DecisionQueueDepthGauge = "decisions.queue-depth"
)
