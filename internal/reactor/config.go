// Package reactor implements the network event loop: one worker per
// hardware thread, each running its own epoll instance over a listener
// socket shared via SO_REUSEPORT and a set of accepted client connections.
package reactor

import (
	"github.com/cyclechain/ignix/internal/executor"
	"github.com/cyclechain/ignix/internal/interfaces"
)

// readBufSize is the scratch buffer each worker reads socket bytes into
// before appending them to a connection's read_buf.
const readBufSize = 4096

// Config configures a Pool of reactor workers.
type Config struct {
	// ListenAddr is the TCP address to bind, e.g. "0.0.0.0:7379".
	ListenAddr string
	// NumWorkers is the number of reactor worker goroutines, each with its
	// own epoll instance and listener bound via SO_REUSEPORT. Defaults to
	// runtime.NumCPU() when zero.
	NumWorkers int
	// Backlog is the listen() backlog; defaults to 1024 when zero.
	Backlog int
	// Exec runs one decoded command against the store; shared read-only by
	// every worker.
	Exec *executor.Executor
	// Logger receives operational log lines. Defaults to a no-op logger.
	Logger interfaces.Logger
	// Observer receives operational metrics. Defaults to a no-op observer.
	Observer interfaces.Observer

	// Offload routes command execution through a bounded worker pool
	// instead of running it inline on the reactor thread. Off by default;
	// exists to exercise the "-ERR server busy" backpressure path when the
	// offload queue saturates.
	Offload bool
	// OffloadWorkers sizes the offload pool when Offload is set. Defaults
	// to 4 when zero.
	OffloadWorkers int
}
