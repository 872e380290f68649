// Package interrupt turns Ctrl+C into a two-step stop for long batch runs.
//
// The first SIGINT or SIGTERM cancels the run context so no new work starts.
// A second one within the decision window discards the run and exits.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Decision is what the user chose after the first interrupt.
type Decision int

const (
	// KeepPartial keeps the work finished before the interrupt.
	KeepPartial Decision = iota
	// Discard drops the run.
	Discard
)

// String returns the name of the decision.
func (d Decision) String() string {
	switch d {
	case KeepPartial:
		return "KeepPartial"
	case Discard:
		return "Discard"
	default:
		return fmt.Sprintf("Decision(%d)", d)
	}
}

// ExitInterrupt is the exit code after a discarded run (128 + SIGINT).
const ExitInterrupt = 130

// Window is how long after the first interrupt a second one discards the run.
const Window = 2 * time.Second

const (
	pollInterval   = 100 * time.Millisecond
	discardMessage = "\nDiscarded."
)

// Handler tracks interrupts received while a run is in flight.
type Handler struct {
	mu      sync.Mutex
	first   time.Time
	count   int
	discard bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	exit   func(int)
	now    func() time.Time
	stderr io.Writer
	sigCh  chan os.Signal // set when subscribed to process signals
}

// Options holds injectable dependencies.
type Options struct {
	// SigCh delivers interrupts. Nil means no interrupt is ever observed.
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler listens for SIGINT and SIGTERM. The returned context is
// canceled on the first interrupt.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	h, ctx := NewHandlerWithOptions(parent, Options{SigCh: sigCh})
	h.sigCh = sigCh
	return h, ctx
}

// NewHandlerWithOptions creates a handler reading interrupts from opts.SigCh.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel: cancel,
		done:   make(chan struct{}),
		exit:   opts.ExitFunc,
		now:    opts.NowFunc,
		stderr: opts.Stderr,
	}
	if h.exit == nil {
		h.exit = os.Exit
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.receive() {
				fmt.Fprintln(h.stderr, discardMessage)
				h.exit(ExitInterrupt)
				return
			}
		}
	}
}

// receive records one interrupt and reports whether the run is discarded.
func (h *Handler) receive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped || h.discard {
		return false
	}
	now := h.now()
	h.count++
	if h.count == 1 {
		h.first = now
		h.cancel()
		return false
	}
	if now.Sub(h.first) <= Window {
		h.discard = true
		return true
	}
	return false
}

// Interrupted reports whether at least one interrupt was received.
func (h *Handler) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count > 0
}

// Decide waits out the rest of the window after the first interrupt and
// returns Discard if a second one arrived. prompt is printed while waiting.
// Without any interrupt it returns KeepPartial at once.
func (h *Handler) Decide(prompt string) Decision {
	h.mu.Lock()
	switch {
	case h.count == 0:
		h.mu.Unlock()
		return KeepPartial
	case h.discard:
		h.mu.Unlock()
		return Discard
	}
	remaining := Window - h.now().Sub(h.first)
	h.mu.Unlock()

	if remaining <= 0 {
		return KeepPartial
	}
	fmt.Fprintln(h.stderr, prompt)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(remaining)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return KeepPartial
		case <-ticker.C:
			h.mu.Lock()
			discard := h.discard
			h.mu.Unlock()
			if discard {
				return Discard
			}
		}
	}
}

// Stop releases the signal subscription. Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	if h.sigCh != nil {
		signal.Stop(h.sigCh)
	}
	close(h.done)
	h.cancel()
}
