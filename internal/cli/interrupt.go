package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT or SIGTERM and tells the user.
type InterruptHandler struct {
	writer      io.Writer
	signals     chan os.Signal
	action      string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a handler that reports action as interrupted.
func NewInterruptHandler(writer io.Writer, action string) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer:  writer,
		action:  action,
		signals: make(chan os.Signal, 1),
	}
}

// HandleInterrupts returns a context canceled on the first interrupt. The
// watcher stops when ctx ends.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(h.signals)
		select {
		case sig := <-h.signals:
			h.mu.Lock()
			if !h.interrupted {
				h.interrupted = true
				h.showInterruptMessage(sig)
			}
			h.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) showInterruptMessage(sig os.Signal) {
	msg := "\n" + FormatWarning(h.action+" interrupted!") +
		"\n" + FormatInfo(fmt.Sprintf("Received %s, shutting down.", sig)) + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		slog.Warn("Failed to write interrupt message", "error", err)
	}
}

// WasInterrupted reports whether a signal was received.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
