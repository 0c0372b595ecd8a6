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

	"github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WorkflowDescriptor is what RegisterWorkflow records about a workflow type.
type WorkflowDescriptor struct {
	Name             string
	DecisionCategory string
	DecisionTimeout  time.Duration
	CronSchedule     string
}

// ActivityDescriptor is what RegisterActivity records about an activity type.
// The three timeouts are independent (SPEC_FULL.md §3/§6): ScheduleTimeout
// bounds how long a scheduled activity may sit unpolled, ExecutionTimeout
// bounds its entire run from poll to completion, and HeartbeatTimeout bounds
// the gap between heartbeats once it's running.
type ActivityDescriptor struct {
	Name             string
	Category         string
	ScheduleTimeout  time.Duration
	ExecutionTimeout time.Duration
	HeartbeatTimeout time.Duration
}

// Defaults bundles the knobs RegisterWorkflow/RegisterActivity fall back to
// when a call site leaves a field zero-valued, and the ambient collaborators
// every component threads through (clock, logger, metrics scope, tracer),
// mirroring the way the teacher's WorkerOptions centralizes such defaults
// instead of scattering them across constructors.
type Defaults struct {
	DecisionCategory string
	ActivityCategory string
	DecisionTimeout  time.Duration
	ScheduleTimeout  time.Duration
	ExecutionTimeout time.Duration
	HeartbeatTimeout time.Duration

	Clock        Clock
	Logger       *zap.Logger
	MetricsScope tally.Scope
	Tracer       opentracing.Tracer

	// PollLimiters, if set, throttles PollActivityTask/PollDecisionTask per
	// category so a hot-spinning caller doesn't busy-loop the backend's
	// mutex. Optional; nil means unthrottled.
	PollLimiters map[string]*rate.Limiter

	// TrailingDecisionPolicy controls how the Decision Interpreter reacts to
	// decisions emitted after a process-terminating decision within the same
	// batch. See SPEC_FULL.md §9.
	TrailingDecisionPolicy TrailingDecisionPolicy

	// Observer, if set, is notified of process lifecycle transitions.
	Observer ProcessObserver
}

func (d *Defaults) setDefaults() {
	if d.DecisionCategory == "" {
		d.DecisionCategory = "default"
	}
	if d.ActivityCategory == "" {
		d.ActivityCategory = "default"
	}
	if d.DecisionTimeout <= 0 {
		d.DecisionTimeout = 10 * time.Second
	}
	if d.ScheduleTimeout <= 0 {
		d.ScheduleTimeout = time.Minute
	}
	if d.ExecutionTimeout <= 0 {
		d.ExecutionTimeout = 10 * time.Minute
	}
	if d.HeartbeatTimeout <= 0 {
		d.HeartbeatTimeout = time.Minute
	}
	if d.Clock == nil {
		d.Clock = NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.MetricsScope == nil {
		d.MetricsScope = tally.NoopScope
	}
	if d.Tracer == nil {
		d.Tracer = opentracing.NoopTracer{}
	}
	if d.Observer == nil {
		d.Observer = noopObserver{}
	}
}

// registry holds every registered workflow and activity type, the way the
// teacher's internal registry maps type names to their implementations
// before a task is ever dispatched.
type registry struct {
	defaults   Defaults
	workflows  map[string]WorkflowDescriptor
	activities map[string]ActivityDescriptor
}

func newRegistry(defaults Defaults) *registry {
	defaults.setDefaults()
	return &registry{
		defaults:   defaults,
		workflows:  make(map[string]WorkflowDescriptor),
		activities: make(map[string]ActivityDescriptor),
	}
}

// registerWorkflow records a workflow type. Re-registering the same name
// overwrites the prior descriptor, matching backend.py's plain dict-set
// register_workflow.
func (r *registry) registerWorkflow(d WorkflowDescriptor) {
	if d.DecisionCategory == "" {
		d.DecisionCategory = r.defaults.DecisionCategory
	}
	if d.DecisionTimeout <= 0 {
		d.DecisionTimeout = r.defaults.DecisionTimeout
	}
	r.workflows[d.Name] = d
}

// registerActivity records an activity type.
func (r *registry) registerActivity(d ActivityDescriptor) {
	if d.Category == "" {
		d.Category = r.defaults.ActivityCategory
	}
	if d.ScheduleTimeout <= 0 {
		d.ScheduleTimeout = r.defaults.ScheduleTimeout
	}
	if d.ExecutionTimeout <= 0 {
		d.ExecutionTimeout = r.defaults.ExecutionTimeout
	}
	if d.HeartbeatTimeout <= 0 {
		d.HeartbeatTimeout = r.defaults.HeartbeatTimeout
	}
	r.activities[d.Name] = d
}

// workflow looks up a registered workflow, panicking per panicIllegalState
// if the name was never registered - scheduling an unregistered workflow
// is a decider programming error, not a runtime condition a caller should
// need to check for on every call (SPEC_FULL.md §9).
func (r *registry) workflow(name string) WorkflowDescriptor {
	d, ok := r.workflows[name]
	if !ok {
		panicIllegalState("orchestrator: workflow %q is not registered", name)
	}
	return d
}

// activity looks up a registered activity, panicking if unregistered.
func (r *registry) activity(name string) ActivityDescriptor {
	d, ok := r.activities[name]
	if !ok {
		panicIllegalState("orchestrator: activity %q is not registered", name)
	}
	return d
}
