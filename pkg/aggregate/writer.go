// Copyright (c) 2025, Fleetscout Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aggregate

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fleetscout/fleetscout/pkg/defaults"
	"github.com/fleetscout/fleetscout/pkg/errors"
	"github.com/fleetscout/fleetscout/pkg/executor"
)

// MemorySampler reports local memory utilization as a fraction, 1.0 meaning
// fully consumed. Used to shrink the write buffer under pressure.
type MemorySampler func() (float64, error)

// Option tunes a Writer.
type Option func(*Writer)

// WithMemorySampler installs a pressure source. While utilization exceeds
// the watermark the effective buffer size is halved (never below 1) to force
// smaller, more frequent flushes; it recovers toward the configured size
// once pressure clears.
func WithMemorySampler(s MemorySampler) Option {
	return func(w *Writer) {
		w.sampler = s
	}
}

// WithMemoryHighWaterMark overrides the default memory watermark.
func WithMemoryHighWaterMark(mark float64) Option {
	return func(w *Writer) {
		if mark > 0 {
			w.memHighWaterMark = mark
		}
	}
}

// Writer streams task results to an append-only sink, one self-describing
// JSON record per line. Results buffer in memory and flush when the buffer
// fills or the flush interval elapses, whichever comes first. Safe for
// concurrent use.
type Writer struct {
	mu        sync.Mutex
	f         *os.File
	buf       []*executor.TaskResult
	finalized bool

	// configuredSize is the caller's buffer size; size is the effective
	// one, shrunk under memory pressure, always within [1, configuredSize].
	configuredSize int
	size           int

	flushes int
	written int

	sampler          MemorySampler
	memHighWaterMark float64

	stop chan struct{}
	done chan struct{}
}

// Open creates or truncates the sink file and starts the interval flusher.
// Non-positive bufferSize or flushInterval select the defaults.
func Open(path string, bufferSize int, flushInterval time.Duration, opts ...Option) (*Writer, error) {
	if bufferSize < 1 {
		bufferSize = defaults.SinkBufferSize
	}
	if flushInterval <= 0 {
		flushInterval = defaults.SinkFlushInterval
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, "opening result sink", err)
	}

	w := &Writer{
		f:                f,
		buf:              make([]*executor.TaskResult, 0, bufferSize),
		configuredSize:   bufferSize,
		size:             bufferSize,
		memHighWaterMark: defaults.MemoryHighWaterMark,
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.flushLoop(flushInterval)
	return w, nil
}

// Add buffers one result, flushing when the buffer reaches its effective
// size. Calling Add after Finalize is a programming error and fails fast.
func (w *Writer) Add(res *executor.TaskResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finalized {
		return errors.New(errors.ErrCodeInvalidInput, "result sink already finalized")
	}

	w.buf = append(w.buf, res)
	if len(w.buf) >= w.size {
		return w.flushLocked()
	}
	return nil
}

// Flush writes any buffered results to the sink.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized {
		return nil
	}
	return w.flushLocked()
}

// Finalize flushes the remainder and closes the sink. Further Adds fail.
func (w *Writer) Finalize() error {
	w.mu.Lock()
	if w.finalized {
		w.mu.Unlock()
		return nil
	}
	ferr := w.flushLocked()
	w.finalized = true
	cerr := w.f.Close()
	w.mu.Unlock()

	close(w.stop)
	<-w.done

	if ferr != nil {
		return ferr
	}
	if cerr != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "closing result sink", cerr)
	}
	return nil
}

// FlushCount returns how many flushes have written to the sink. Empty-buffer
// flushes are not counted.
func (w *Writer) FlushCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushes
}

// Written returns the number of records written to the sink.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// BufferSize returns the effective buffer size.
func (w *Writer) BufferSize() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *Writer) flushLocked() error {
	if len(w.buf) == 0 {
		return nil
	}

	for _, res := range w.buf {
		line, err := json.Marshal(res)
		if err != nil {
			return errors.Wrap(errors.ErrCodeUnknown, "encoding result record", err)
		}
		if _, err := fmt.Fprintf(w.f, "%s\n", line); err != nil {
			return errors.Wrap(errors.ErrCodeUnknown, "appending to result sink", err)
		}
	}

	w.written += len(w.buf)
	w.flushes++
	sinkRecordsTotal.Add(float64(len(w.buf)))
	sinkFlushesTotal.Inc()
	w.buf = w.buf[:0]
	return nil
}

// flushLoop flushes on the interval and re-evaluates memory pressure on
// each tick.
func (w *Writer) flushLoop(interval time.Duration) {
	defer close(w.done)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-t.C:
			w.adjustForPressure()
			_ = w.Flush()
		}
	}
}

// adjustForPressure shrinks the effective buffer size while memory
// utilization exceeds the watermark and restores it once pressure clears.
func (w *Writer) adjustForPressure() {
	if w.sampler == nil {
		return
	}
	mem, err := w.sampler()
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if mem > w.memHighWaterMark {
		next := w.size / 2
		if next < 1 {
			next = 1
		}
		w.size = next
	} else if w.size < w.configuredSize {
		w.size++
	}
	sinkBufferSize.Set(float64(w.size))
}
