//go:build linux
// +build linux

package reactor

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cyclechain/ignix/internal/interfaces"
	"github.com/cyclechain/ignix/internal/resp"
)

// epollWaitTimeoutMs bounds each EpollWait call so a worker can notice its
// stop channel has closed even with no socket activity; this is the
// reactor's one permitted blocking suspension point besides the syscalls
// themselves.
const epollWaitTimeoutMs = 500

const maxEpollEvents = 1024

// worker owns one epoll instance, one listener bound via SO_REUSEPORT, and
// the subset of client connections it personally accepted. Nothing here is
// touched by any other goroutine.
type worker struct {
	id       int
	epfd     int
	listenFd int
	cfg      *Config
	conns    map[int]*conn
	offload  *offloadPool
	stop     chan struct{}
	done     chan struct{}
}

func newWorker(id int, cfg *Config) *worker {
	return &worker{
		id:    id,
		cfg:   cfg,
		conns: make(map[int]*conn),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// bind creates this worker's own listener (sharing the port via
// SO_REUSEPORT with every other worker) and its epoll instance. It runs
// synchronously on the caller's goroutine so Pool.Start can report a bind
// failure directly instead of racing against the worker's run loop.
func (w *worker) bind() error {
	listenFd, err := bindReusePort(w.cfg.ListenAddr, backlogOrDefault(w.cfg.Backlog))
	if err != nil {
		return err
	}
	w.listenFd = listenFd

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		unix.Close(w.listenFd)
		return err
	}
	w.epfd = epfd

	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, w.listenFd, &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLET,
		Fd:     int32(w.listenFd),
	}); err != nil {
		unix.Close(w.epfd)
		unix.Close(w.listenFd)
		return err
	}

	w.cfg.Logger.Infof("reactor worker %d listening on %s (fd=%d)", w.id, w.cfg.ListenAddr, w.listenFd)
	return nil
}

// closeListener releases a bound-but-never-run worker's fds; used when a
// sibling worker's bind fails during Pool.Start.
func (w *worker) closeListener() {
	unix.Close(w.epfd)
	unix.Close(w.listenFd)
}

// run drives the epoll loop until stop is closed. bind must have succeeded
// first.
func (w *worker) run() error {
	defer close(w.done)
	defer unix.Close(w.epfd)
	defer unix.Close(w.listenFd)

	events := make([]unix.EpollEvent, maxEpollEvents)
	scratch := make([]byte, readBufSize)

	for {
		select {
		case <-w.stop:
			w.teardownAll()
			return nil
		default:
		}

		n, err := unix.EpollWait(w.epfd, events, epollWaitTimeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == w.listenFd {
				w.acceptLoop()
				continue
			}
			w.handleClientEvent(fd, events[i].Events, scratch)
		}
	}
}

func (w *worker) acceptLoop() {
	for {
		nfd, _, err := unix.Accept4(w.listenFd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			if err == unix.EINTR {
				continue
			}
			w.cfg.Logger.Warnf("%v", interfaces.WrapError(fmt.Sprintf("reactor.worker[%d].accept", w.id), err))
			return
		}

		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

		if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, nfd, &unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(nfd),
		}); err != nil {
			w.cfg.Logger.Warnf("%v", interfaces.WrapError(fmt.Sprintf("reactor.worker[%d].epollAdd", w.id), err))
			unix.Close(nfd)
			continue
		}

		w.conns[nfd] = newConn(nfd)
		w.cfg.Observer.ObserveConnAccepted()
	}
}

func (w *worker) handleClientEvent(fd int, eventMask uint32, scratch []byte) {
	c, ok := w.conns[fd]
	if !ok {
		return
	}

	teardown := false

	if eventMask&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		teardown = w.readClient(c, scratch)
	}

	if !teardown && eventMask&unix.EPOLLOUT != 0 && len(c.writeBuf) > 0 {
		teardown = w.writeClient(c)
	}

	if !teardown && c.closing && len(c.writeBuf) == 0 {
		teardown = true
	}

	if teardown {
		w.closeConn(fd)
		return
	}

	w.reregisterInterest(c)
}

func (w *worker) readClient(c *conn, scratch []byte) (teardown bool) {
	for {
		n, err := unix.Read(c.fd, scratch)
		if n > 0 {
			c.readBuf = append(c.readBuf, scratch[:n]...)
		}
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				break
			}
			if err == unix.EINTR {
				continue
			}
			return true
		}
		if n == 0 {
			return true
		}
	}

	c.cmds = c.cmds[:0]
	consumed, cmds, perr := resp.DecodeAll(c.readBuf, c.cmds)
	c.cmds = cmds
	c.readBuf = c.readBuf[consumed:]

	if perr != nil {
		c.writeBuf = resp.AppendError(c.writeBuf, "ERR "+perr.Error())
		c.closing = true
		w.cfg.Observer.ObserveProtocolError()
	} else {
		for _, cmd := range c.cmds {
			start := time.Now()
			c.writeBuf = w.execOne(cmd, c.writeBuf)
			w.cfg.Observer.ObserveCommand(cmd.Name, uint64(time.Since(start).Nanoseconds()))
		}
	}

	if len(c.writeBuf) > 0 {
		if w.writeClient(c) {
			return true
		}
	}
	return false
}

// execOne runs cmd either inline (the default) or, when this worker was
// started under offload mode, via the shared offload pool: a saturated
// offload queue replies with a capacity error instead of the command's
// normal reply.
func (w *worker) execOne(cmd resp.Cmd, buf []byte) []byte {
	if w.offload == nil {
		return w.cfg.Exec.Exec(cmd, buf)
	}
	result, ok := w.offload.submit(cmd)
	if !ok {
		w.cfg.Observer.ObserveCapacityReject()
		return resp.AppendError(buf, "ERR server busy")
	}
	return append(buf, <-result...)
}

func (w *worker) writeClient(c *conn) (teardown bool) {
	for len(c.writeBuf) > 0 {
		n, err := unix.Write(c.fd, c.writeBuf)
		if n > 0 {
			c.writeBuf = c.writeBuf[n:]
		}
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return false
			}
			if err == unix.EINTR {
				continue
			}
			return true
		}
		if n == 0 {
			return false
		}
	}
	return false
}

func (w *worker) reregisterInterest(c *conn) {
	wantWrite := len(c.writeBuf) > 0
	if wantWrite == c.wantWrite {
		return
	}
	events := uint32(unix.EPOLLIN)
	if wantWrite {
		events |= unix.EPOLLOUT
	}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_MOD, c.fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(c.fd),
	}); err != nil {
		w.cfg.Logger.Warnf("%v", interfaces.WrapError(fmt.Sprintf("reactor.worker[%d].epollMod", w.id), err))
		return
	}
	c.wantWrite = wantWrite
}

func (w *worker) closeConn(fd int) {
	unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	unix.Close(fd)
	delete(w.conns, fd)
	w.cfg.Observer.ObserveConnClosed()
}

func (w *worker) teardownAll() {
	for fd := range w.conns {
		w.closeConn(fd)
	}
}

// bindReusePort creates a non-blocking TCP listening socket with
// SO_REUSEADDR and SO_REUSEPORT set, so every worker can bind the same
// address/port and let the kernel load-balance accepts across them.
func bindReusePort(addr string, backlog int) (int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return -1, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return -1, err
	}

	ip := net.ParseIP(host)
	domain := unix.AF_INET
	if ip != nil && ip.To4() == nil {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, err
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}

	if domain == unix.AF_INET {
		var sa unix.SockaddrInet4
		sa.Port = port
		if ip != nil {
			copy(sa.Addr[:], ip.To4())
		}
		if err := unix.Bind(fd, &sa); err != nil {
			unix.Close(fd)
			return -1, err
		}
	} else {
		var sa unix.SockaddrInet6
		sa.Port = port
		if ip != nil {
			copy(sa.Addr[:], ip.To16())
		}
		if err := unix.Bind(fd, &sa); err != nil {
			unix.Close(fd)
			return -1, err
		}
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, err
	}

	return fd, nil
}

func backlogOrDefault(n int) int {
	if n <= 0 {
		return 1024
	}
	return n
}
