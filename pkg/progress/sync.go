package progress

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/omnicli/omni/pkg/logger"
)

var log = logger.New("progress:sync")

// Event is one JSONL record appended to a run's sync file, mirroring the
// Handler calls made against the primary handler so a second, concurrent
// `omni up` for the same workdir can attach and replay instead of
// starting a conflicting run of its own (spec.md §5).
type Event struct {
	Kind  string `json:"kind"` // start|update|done|fail
	Step  int    `json:"step"`
	Total int    `json:"total"`
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

// SyncWriter appends Events to a sync file under an exclusive lock, so
// partial JSON lines from interleaved writers never happen even though
// the file itself isn't otherwise protected against concurrent writers.
type SyncWriter struct {
	path string
	lock *flock.Flock
}

// NewSyncWriter returns a writer for the sync file at path; the file is
// created by the first Append.
func NewSyncWriter(path string) *SyncWriter {
	return &SyncWriter{path: path, lock: flock.New(path + ".lock")}
}

// Append writes one Event as a JSON line, under the sync file's exclusive
// lock.
func (w *SyncWriter) Append(ev Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := w.lock.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil || !ok {
		return fmt.Errorf("locking sync file %s: %w", w.path, err)
	}
	defer w.lock.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening sync file %s: %w", w.path, err)
	}
	defer f.Close()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding sync event: %w", err)
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// HandlerMirror wraps an inner Handler, mirroring every call into a
// SyncWriter in addition to the real rendering, so a running `up`
// transparently produces a replayable log without the orchestrator
// needing to know about sync files at all.
type HandlerMirror struct {
	inner  Handler
	writer *SyncWriter
	prefix string
}

// Mirror wraps inner so its events are also appended to path.
func Mirror(inner Handler, path string) Handler {
	return &HandlerMirror{inner: inner, writer: NewSyncWriter(path)}
}

func (m *HandlerMirror) Start(step, total int, label string) {
	m.inner.Start(step, total, label)
	m.append(Event{Kind: "start", Step: step, Total: total, Label: m.prefix + label})
}
func (m *HandlerMirror) Update(message string) {
	m.inner.Update(message)
	m.append(Event{Kind: "update", Label: message})
}
func (m *HandlerMirror) Done(step, total int, label string) {
	m.inner.Done(step, total, label)
	m.append(Event{Kind: "done", Step: step, Total: total, Label: m.prefix + label})
}
func (m *HandlerMirror) Fail(step, total int, label string, err error) {
	m.inner.Fail(step, total, label, err)
	m.append(Event{Kind: "fail", Step: step, Total: total, Label: m.prefix + label, Error: err.Error()})
}
func (m *HandlerMirror) Sub(prefix string) Handler {
	return &HandlerMirror{inner: m.inner.Sub(prefix), writer: m.writer, prefix: m.prefix + prefix + " "}
}

func (m *HandlerMirror) append(ev Event) {
	if err := m.writer.Append(ev); err != nil {
		log.Printf("mirroring progress event: %v", err)
	}
}

// Attach tails path, printing each Event as it's appended, until the
// context is cancelled, a "fail" event is read, or a "done" event closes
// out the final step (step == total). It uses fsnotify to wake on writes instead of polling, matching
// spec.md §5's "wake-on-append, not busy-poll" requirement.
func Attach(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening sync file %s: %w", path, err)
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watching sync file %s: %w", path, err)
	}

	reader := bufio.NewReader(f)
	drain := func() (sawFinal bool) {
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				var ev Event
				if jerr := json.Unmarshal([]byte(line), &ev); jerr == nil {
					printEvent(ev)
					if ev.Kind == "fail" || (ev.Kind == "done" && ev.Step >= ev.Total) {
						sawFinal = true
					}
				}
			}
			if err != nil {
				return sawFinal
			}
		}
	}

	if drain() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if drain() {
				return nil
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher error on %s: %v", path, werr)
		}
	}
}

func printEvent(ev Event) {
	switch ev.Kind {
	case "start":
		fmt.Fprintf(os.Stderr, "[%d/%d] %s ...\n", ev.Step, ev.Total, ev.Label)
	case "update":
		fmt.Fprintf(os.Stderr, "  %s\n", ev.Label)
	case "done":
		fmt.Fprintf(os.Stderr, "✓ [%d/%d] %s\n", ev.Step, ev.Total, ev.Label)
	case "fail":
		fmt.Fprintf(os.Stderr, "✗ [%d/%d] %s: %s\n", ev.Step, ev.Total, ev.Label, ev.Error)
	}
}
