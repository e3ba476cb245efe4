// Package progress implements omni's Progress/Sync Channel (spec.md §4.5,
// component C5): a handler that reports step-by-step progress during `up`
// and `down`, either as an animated spinner or plain lines depending on
// whether stderr is a terminal, plus a JSONL mirror file that lets a
// second, concurrent `omni up` attach to and replay an in-progress run
// instead of racing it.
package progress

import (
	"fmt"
	"os"

	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/tty"
)

// Handler receives step lifecycle events from the orchestrator. Step
// indices are 1-based; total is the count of steps in the current `up`
// section so implementations can render "(2/5)"-style progress.
type Handler interface {
	Start(step int, total int, label string)
	Update(message string)
	Done(step int, total int, label string)
	Fail(step int, total int, label string, err error)
	// Sub returns a handler for a nested operation (e.g. a tool step's
	// own sub-steps), prefixing its labels with prefix.
	Sub(prefix string) Handler
}

// New returns a Spinner-backed Handler when stderr is a terminal and the
// environment isn't in accessibility mode, falling back to a Print
// handler otherwise — the same TTY-gating rule the teacher's
// console.NewSpinner already applies, reused here rather than
// reimplemented.
func New() Handler {
	if tty.IsStderrTerminal() && os.Getenv("ACCESSIBLE") == "" {
		return &spinnerHandler{}
	}
	return &printHandler{}
}

type spinnerHandler struct {
	prefix  string
	current *console.SpinnerWrapper
}

func (h *spinnerHandler) label(step, total int, label string) string {
	if h.prefix != "" {
		return fmt.Sprintf("[%d/%d] %s%s", step, total, h.prefix, label)
	}
	return fmt.Sprintf("[%d/%d] %s", step, total, label)
}

func (h *spinnerHandler) Start(step, total int, label string) {
	h.current = console.NewSpinner(h.label(step, total, label))
	h.current.Start()
}

func (h *spinnerHandler) Update(message string) {
	if h.current != nil {
		h.current.UpdateMessage(message)
	}
}

func (h *spinnerHandler) Done(step, total int, label string) {
	if h.current != nil {
		h.current.StopWithMessage(fmt.Sprintf("✓ %s", h.label(step, total, label)))
	}
}

func (h *spinnerHandler) Fail(step, total int, label string, err error) {
	if h.current != nil {
		h.current.StopWithMessage(fmt.Sprintf("✗ %s: %v", h.label(step, total, label), err))
	}
}

func (h *spinnerHandler) Sub(prefix string) Handler {
	return &spinnerHandler{prefix: h.prefix + prefix + " "}
}

// printHandler writes one line per event, for non-TTY output (CI logs,
// piped output) where an animated spinner would just spam escape codes.
type printHandler struct {
	prefix string
}

func (h *printHandler) line(step, total int, label string) string {
	if h.prefix != "" {
		return fmt.Sprintf("[%d/%d] %s%s", step, total, h.prefix, label)
	}
	return fmt.Sprintf("[%d/%d] %s", step, total, label)
}

func (h *printHandler) Start(step, total int, label string) {
	fmt.Fprintln(os.Stderr, h.line(step, total, label)+" ...")
}
func (h *printHandler) Update(message string) {
	fmt.Fprintln(os.Stderr, "  "+message)
}
func (h *printHandler) Done(step, total int, label string) {
	fmt.Fprintln(os.Stderr, "✓ "+h.line(step, total, label))
}
func (h *printHandler) Fail(step, total int, label string, err error) {
	fmt.Fprintf(os.Stderr, "✗ %s: %v\n", h.line(step, total, label), err)
}
func (h *printHandler) Sub(prefix string) Handler {
	return &printHandler{prefix: h.prefix + prefix + " "}
}
