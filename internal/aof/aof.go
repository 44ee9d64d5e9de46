// Package aof implements the background durability log: a single-writer
// goroutine that appends queued records to a local file and periodically
// flushes and fsyncs it.
package aof

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cyclechain/ignix/internal/bufpool"
	"github.com/cyclechain/ignix/internal/interfaces"
)

// queueCapacity bounds the record channel. A full queue makes Enqueue
// non-blocking still, but the caller is told the record was dropped via its
// false return rather than risking backpressure on the reactor loop.
const queueCapacity = 4096

// flushInterval is the default FLUSH_INTERVAL: at most one flush+fsync per
// this duration, measured since the last flush.
const flushInterval = 1000 * time.Millisecond

// Writer is a background single-writer durability log. A zero-value Writer
// is not usable; construct with Open.
type Writer struct {
	records chan []byte
	done    chan struct{}
	logger  interfaces.Logger
}

// Open starts the background writer goroutine, appending to path in
// create-append mode. If the file cannot be opened, Open returns a non-nil
// structured error and does not log it itself; callers should log it and run
// without durability rather than fail startup (see Enqueue on a nil *Writer).
func Open(path string, logger interfaces.Logger) (*Writer, error) {
	if logger == nil {
		logger = interfaces.NoOpLogger{}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, interfaces.WrapError("aof.Open", err)
	}

	w := &Writer{
		records: make(chan []byte, queueCapacity),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go w.run(f)
	return w, nil
}

// Enqueue submits record for durable append. It never blocks: if the
// writer's queue is saturated, the record is dropped and Enqueue returns
// false. A nil *Writer (durability disabled) also returns false.
func (w *Writer) Enqueue(record []byte) bool {
	if w == nil {
		return false
	}
	select {
	case w.records <- record:
		return true
	default:
		w.logger.Warnf("%v", interfaces.NewError("aof.Enqueue", interfaces.ErrCodeCapacity, "queue saturated, dropping record"))
		return false
	}
}

// Close stops accepting new records and blocks until the writer goroutine
// has drained the queue, flushed, and closed the file.
func (w *Writer) Close() {
	if w == nil {
		return
	}
	close(w.records)
	<-w.done
}

// run drains records onto f, flushing at most once per flushInterval. A
// ticker (rather than only checking elapsed time on each append) is what
// makes the idle case work: a writer that appends once and then receives
// nothing else still gets flushed on the next tick instead of sitting
// unflushed until more traffic arrives or Close is called.
func (w *Writer) run(f *os.File) {
	defer close(w.done)
	defer f.Close()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case record, ok := <-w.records:
			if !ok {
				if dirty {
					w.flush(f)
				}
				return
			}
			if _, err := f.Write(record); err != nil {
				w.logger.Errorf("%v", interfaces.WrapError("aof.write", err))
			}
			bufpool.Put(record[:0])
			dirty = true
		case <-ticker.C:
			if dirty {
				w.flush(f)
				dirty = false
			}
		}
	}
}

func (w *Writer) flush(f *os.File) {
	if err := unix.Fdatasync(int(f.Fd())); err != nil {
		w.logger.Errorf("%v", interfaces.WrapError("aof.fdatasync", err))
	}
}
