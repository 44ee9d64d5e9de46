// Package executor turns decoded RESP commands into Store mutations,
// optional durability records, and reply bytes. It holds no per-connection
// state: one Executor is shared by every reactor worker.
package executor

import (
	"strconv"

	"github.com/cyclechain/ignix/internal/bufpool"
	"github.com/cyclechain/ignix/internal/interfaces"
	"github.com/cyclechain/ignix/internal/resp"
)

// Executor binds a Store to an optional durability log writer and an
// optional metrics observer. A nil LogWriter/Observer disables durability
// logging/metrics without branching at every call site (NoOpObserver /
// a nil-aware enqueue helper absorb the difference).
type Executor struct {
	Store    interfaces.Store
	LogW     interfaces.LogWriter
	Observer interfaces.Observer
}

// New constructs an Executor. observer may be nil, in which case a
// NoOpObserver is used.
func New(store interfaces.Store, logW interfaces.LogWriter, observer interfaces.Observer) *Executor {
	if observer == nil {
		observer = interfaces.NoOpObserver{}
	}
	return &Executor{Store: store, LogW: logW, Observer: observer}
}

// Exec runs one decoded command against the Store, appending its reply to
// buf, and returns the extended buffer. Durability records for logging
// commands (SET, RENAME, INCR, MSET) are built fresh as canonical RESP
// frames rather than replayed from the original wire bytes, so the AOF
// stays a valid command stream independent of how the client phrased it
// (extra trailing arguments, odd casing, etc).
func (e *Executor) Exec(cmd resp.Cmd, buf []byte) []byte {
	switch cmd.Name {
	case "PING":
		return resp.AppendSimple(buf, "PONG")
	case "GET":
		return e.execGet(cmd.Args[0], buf)
	case "SET":
		return e.execSet(cmd.Args[0], cmd.Args[1], buf)
	case "DEL":
		existed := e.Store.Del(cmd.Args[0])
		return resp.AppendInteger(buf, boolToInt(existed))
	case "RENAME":
		return e.execRename(cmd.Args[0], cmd.Args[1], buf)
	case "EXISTS":
		return resp.AppendInteger(buf, boolToInt(e.Store.Exists(cmd.Args[0])))
	case "INCR":
		return e.execIncr(cmd.Args[0], buf)
	case "MGET":
		return e.execMGet(cmd.Args, buf)
	case "MSET":
		return e.execMSet(cmd.Args, buf)
	default:
		return resp.AppendError(buf, "ERR unknown command")
	}
}

func (e *Executor) execGet(key []byte, buf []byte) []byte {
	v, ok := e.Store.Get(key)
	if !ok {
		return resp.AppendNullBulk(buf)
	}
	return resp.AppendBulk(buf, valueBytes(v))
}

func (e *Executor) execSet(key, val, buf []byte) []byte {
	e.enqueue(encodeAOFFrame("SET", key, val))
	e.Store.Set(key, coerceValue(val))
	return resp.AppendSimple(buf, "OK")
}

func (e *Executor) execRename(from, to, buf []byte) []byte {
	if string(from) == string(to) {
		return resp.AppendSimple(buf, "OK")
	}
	existed := e.Store.Rename(from, to)
	if !existed {
		return resp.AppendError(buf, "ERR no such key")
	}
	e.enqueue(encodeAOFFrame("RENAME", from, to))
	return resp.AppendSimple(buf, "OK")
}

func (e *Executor) execIncr(key, buf []byte) []byte {
	next := e.Store.Incr(key)
	e.enqueue(encodeAOFFrame("INCR", key))
	return resp.AppendInteger(buf, next)
}

func (e *Executor) execMGet(keys [][]byte, buf []byte) []byte {
	buf = resp.AppendArrayHeader(buf, len(keys))
	for _, k := range keys {
		v, ok := e.Store.Get(k)
		if !ok {
			buf = resp.AppendNullBulk(buf)
			continue
		}
		buf = resp.AppendBulk(buf, valueBytes(v))
	}
	return buf
}

func (e *Executor) execMSet(args [][]byte, buf []byte) []byte {
	e.enqueue(encodeAOFFrame("MSET", args...))
	for i := 0; i+1 < len(args); i += 2 {
		e.Store.Set(args[i], coerceValue(args[i+1]))
	}
	return resp.AppendSimple(buf, "OK")
}

func (e *Executor) enqueue(record []byte) {
	if e.LogW == nil {
		return
	}
	accepted := e.LogW.Enqueue(record)
	e.Observer.ObserveAOFRecord(accepted)
}

// encodeAOFFrame builds a canonical RESP array frame "*<n>\r\n$<len>\r\n<name>\r\n..."
// for name and its arguments, suitable for direct replay from the AOF file.
// The backing array starts as a pooled buffer; the aof writer returns it to
// the pool once the record has been written to disk.
func encodeAOFFrame(name string, args ...[]byte) []byte {
	buf := bufpool.Get(bufpool.Size4k)[:0]
	buf = resp.AppendArrayHeader(buf, 1+len(args))
	buf = resp.AppendBulk(buf, []byte(name))
	for _, a := range args {
		buf = resp.AppendBulk(buf, a)
	}
	return buf
}

// coerceValue stores a SET value as Integer when it is a non-empty ASCII
// decimal of 1-20 bytes that parses to an int64; otherwise as Text.
func coerceValue(v []byte) interfaces.Value {
	if n, ok := tryParseSmallInt(v); ok {
		return interfaces.Value{Kind: interfaces.KindInteger, Int: n}
	}
	return interfaces.Value{Kind: interfaces.KindText, Bytes: append([]byte(nil), v...)}
}

func tryParseSmallInt(v []byte) (int64, bool) {
	if len(v) == 0 || len(v) > 20 {
		return 0, false
	}
	start := 0
	if v[0] == '-' || v[0] == '+' {
		start = 1
		if len(v) == 1 {
			return 0, false
		}
	}
	for i := start; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func valueBytes(v interfaces.Value) []byte {
	if v.Kind == interfaces.KindInteger {
		return []byte(strconv.FormatInt(v.Int, 10))
	}
	return v.Bytes
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
