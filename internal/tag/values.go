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

// Package tag defines the structured zap fields the engine attaches to its
// log lines, the way the cadence server's common/log/tag package does.
package tag

import "go.uber.org/zap"

// Field keys used across the engine. Kept as a closed set, mirroring the
// server's tag package, so every log line for the same concept sorts and
// greps the same way.
const (
	keyProcessID   = "process-id"
	keyRunID       = "run-id"
	keyWorkflow    = "workflow"
	keyActivity    = "activity"
	keyActivityID  = "activity-id"
	keyCategory    = "category"
	keyOperation   = "operation"
	keyComponent   = "component"
	keyTimeoutKind = "timeout-kind"
)

// ProcessID tags the process-id a log line concerns.
func ProcessID(id string) zap.Field { return zap.String(keyProcessID, id) }

// RunID tags the run-id (decision or activity dispatch) a log line concerns.
func RunID(id string) zap.Field { return zap.String(keyRunID, id) }

// Workflow tags a workflow type name.
func Workflow(name string) zap.Field { return zap.String(keyWorkflow, name) }

// Activity tags an activity type name.
func Activity(name string) zap.Field { return zap.String(keyActivity, name) }

// ActivityID tags the caller-supplied activity id within a process.
func ActivityID(id string) zap.Field { return zap.String(keyActivityID, id) }

// Category tags a queue category.
func Category(name string) zap.Field { return zap.String(keyCategory, name) }

// Operation tags the public operation name (e.g. "StartProcess").
func Operation(name string) zap.Field { return zap.String(keyOperation, name) }

// Component tags the internal component emitting the log line.
func Component(name string) zap.Field { return zap.String(keyComponent, name) }

// TimeoutKind tags which phase timed out: "scheduled-activity",
// "running-activity", "running-decision", or "scheduled-decision".
func TimeoutKind(kind string) zap.Field { return zap.String(keyTimeoutKind, kind) }

// Pre-defined component names, mirroring the server's ComponentXxx values.
const (
	ComponentDispatcher   = "dispatcher"
	ComponentSweeper      = "sweeper"
	ComponentInterpreter  = "decision-interpreter"
	ComponentActivityQueue = "activity-queue"
	ComponentDecisionQueue = "decision-queue"
	ComponentCron          = "cron-scheduler"
)

// Pre-defined timeout-kind values, mirroring the sweep categories in
// SPEC_FULL.md §4.5.
const (
	TimeoutKindScheduledActivity = "scheduled-activity"
	TimeoutKindRunningActivity   = "running-activity"
	TimeoutKindRunningDecision   = "running-decision"
	TimeoutKindScheduledDecision = "scheduled-decision"
)
