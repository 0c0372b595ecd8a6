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

// Command historydump renders one process's event history to stdout. It is a
// debugging aid, not part of the engine: it links against a process fixture
// file rather than a live Orchestrator, since this package has no wire
// protocol a standalone binary could dial into.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	orchestrator "go.uber.org/orchestrator"
)

func main() {
	path := flag.String("process", "", "path to a JSON-encoded orchestrator.Process snapshot")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *path == "" {
		log.Error("-process is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := dump(log, *path); err != nil {
		log.WithError(err).Error("historydump failed")
		os.Exit(1)
	}
}

func dump(log *logrus.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var p orchestrator.Process
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{
		"process-id": p.ID,
		"workflow":   p.Workflow,
		"events":     len(p.History),
	}).Info("loaded process")

	for i, evt := range p.History {
		fields := logrus.Fields{
			"seq":  i,
			"type": evt.Type.String(),
		}
		if b, err := json.Marshal(evt.Attributes); err == nil {
			fields["attributes"] = string(b)
		}
		log.WithFields(fields).Info("event")
	}
	return nil
}
