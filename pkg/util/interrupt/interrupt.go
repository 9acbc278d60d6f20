// Package interrupt runs cleanup functions when the process receives a
// terminating signal, so working containers and temp directories do not leak.
package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// terminationSignals are signals that cause the program to exit in the
// supported platforms (linux, darwin, windows).
var terminationSignals = []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// Handler guarantees execution of notifications after a critical section
// (the function passed to a Run method), even in the presence of process
// termination via a termination signal.
type Handler struct {
	notify []func()
	final  func(os.Signal)
	once   sync.Once
}

// New creates a new handler that guarantees all notify functions are run
// after the critical section exits (or is interrupted by a signal), then
// invokes the final handler. If no final handler is specified, the default
// final is `os.Exit`.
func New(final func(os.Signal), notify ...func()) *Handler {
	return &Handler{
		final:  final,
		notify: notify,
	}
}

// Run ensures that any notifications are invoked after the provided fn
// exits (even if the process is interrupted by a signal).
func (h *Handler) Run(fn func() error) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, terminationSignals...)
	defer func() {
		signal.Stop(ch)
		close(ch)
	}()
	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		h.signal(sig)
	}()
	defer h.close()
	return fn()
}

func (h *Handler) close() {
	h.once.Do(func() {
		for _, fn := range h.notify {
			fn()
		}
	})
}

func (h *Handler) signal(s os.Signal) {
	h.once.Do(func() {
		for _, fn := range h.notify {
			fn()
		}
		if h.final == nil {
			os.Exit(1)
		}
		h.final(s)
	})
}
