//go:build !linux
// +build !linux

package reactor

import (
	"fmt"
	"runtime"

	"github.com/cyclechain/ignix/internal/interfaces"
)

// worker is a placeholder on non-Linux platforms; the reactor's epoll-based
// event loop is Linux-only (SO_REUSEPORT + epoll). Build with GOOS=linux to
// get the real implementation.
type worker struct {
	id      int
	cfg     *Config
	offload *offloadPool
	stop    chan struct{}
	done    chan struct{}
}

func newWorker(id int, cfg *Config) *worker {
	return &worker{id: id, cfg: cfg, stop: make(chan struct{}), done: make(chan struct{})}
}

func (w *worker) bind() error {
	return unsupportedPlatformError()
}

func (w *worker) closeListener() {}

func (w *worker) run() error {
	close(w.done)
	return unsupportedPlatformError()
}

func unsupportedPlatformError() error {
	return interfaces.NewError("reactor.worker.bind", interfaces.ErrCodeIO,
		fmt.Sprintf("epoll-based worker is only supported on linux (GOOS=%s)", runtime.GOOS))
}
