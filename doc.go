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

// Package orchestrator is an in-memory backend for a workflow orchestration
// service in the style of a durable task coordinator (the pattern popularized
// by SWF/Cadence/Temporal). It stores every process's event history,
// schedules decisions and activities onto category-partitioned queues, hands
// them out to polling workers, enforces scheduling/execution/heartbeat
// timeouts, relays signals, and propagates child-process lifecycle events to
// parents.
//
// The package itself carries no wire protocol, transport, or persistence:
// deciders and activity workers are expected to be in the same process as
// the Orchestrator, or to sit behind a transport of the caller's choosing
// that forwards the calls below. The worker subpackage supplies an optional
// poll-and-sleep convenience loop for callers that would rather not manage
// their own polling retry logic.
package orchestrator
