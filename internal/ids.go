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
	"fmt"

	"github.com/pborman/uuid"
	"go.uber.org/atomic"
)

// idGenerator hands out process-ids and run-ids. Process-ids default to a
// random uuid (matching the teacher's convention of defaulting an
// unspecified workflow-id to a uuid), while run-ids combine a monotonic
// sequence with a uuid so two run-ids minted in the same nanosecond still
// sort distinctly in logs.
type idGenerator struct {
	seq atomic.Uint64
}

func newIDGenerator() *idGenerator {
	return &idGenerator{}
}

func (g *idGenerator) newProcessID() string {
	return uuid.New()
}

func (g *idGenerator) newRunID() string {
	n := g.seq.Inc()
	return fmt.Sprintf("%s-%d", uuid.New(), n)
}
