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

// ProcessObserver lets a caller watch process lifecycle transitions without
// polling the store - useful for test assertions and for wiring the engine
// into an external metrics or audit pipeline. All methods must return
// quickly: they run synchronously inside the Backend's single mutex.
type ProcessObserver interface {
	OnProcessStarted(processID, workflow string)
	OnProcessCompleted(processID string, result interface{})
	OnProcessCanceled(processID string, details interface{})
}

// noopObserver is the default ProcessObserver when none is configured.
type noopObserver struct{}

func (noopObserver) OnProcessStarted(string, string)       {}
func (noopObserver) OnProcessCompleted(string, interface{}) {}
func (noopObserver) OnProcessCanceled(string, interface{})  {}
