package reactor

import "github.com/cyclechain/ignix/internal/resp"

// conn is per-connection state, owned exclusively by the worker that
// accepted it; never touched from another goroutine.
type conn struct {
	fd int

	// readBuf holds bytes received but not yet consumed by the decoder.
	readBuf []byte
	// writeBuf holds reply bytes produced but not yet flushed to the
	// socket.
	writeBuf []byte
	// cmds is a scratch slice reused across reads to receive decoded
	// frames, avoiding a per-read allocation for the common case.
	cmds []resp.Cmd

	// wantWrite tracks whether the socket is currently registered for
	// write readiness, so reregisterInterest only calls epoll_ctl when the
	// desired interest set actually changes.
	wantWrite bool
	// closing is set once a protocol error has scheduled teardown after
	// the write buffer drains.
	closing bool
}

func newConn(fd int) *conn {
	return &conn{
		fd:      fd,
		readBuf: make([]byte, 0, readBufSize),
		cmds:    make([]resp.Cmd, 0, 32),
	}
}
