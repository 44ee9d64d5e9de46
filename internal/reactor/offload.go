package reactor

import (
	"github.com/cyclechain/ignix/internal/executor"
	"github.com/cyclechain/ignix/internal/resp"
)

// offloadQueueCapacity bounds how many commands can be waiting for an
// offload worker at once; beyond this, submit reports saturation instead
// of blocking the reactor thread.
const offloadQueueCapacity = 1024

// defaultOffloadWorkers is used when Config.Offload is set without an
// explicit Config.OffloadWorkers.
const defaultOffloadWorkers = 4

type offloadJob struct {
	cmd    resp.Cmd
	result chan []byte
}

// offloadPool is the optional alternative to inline execution: a fixed set
// of goroutines drains a bounded job queue, running commands against the
// shared Store off the reactor thread. It mirrors internal/aof.Writer's
// bounded-channel-drain shape, applied to command execution instead of
// durability records.
//
// The worker that submits a job still waits for its result before replying,
// preserving per-connection in-order execution; what offload buys is a
// place for backpressure to surface as a capacity error instead of an
// unbounded queue of pending commands.
type offloadPool struct {
	exec *executor.Executor
	jobs chan offloadJob
	stop chan struct{}
	done chan struct{}
}

func newOffloadPool(exec *executor.Executor, numWorkers int) *offloadPool {
	if numWorkers <= 0 {
		numWorkers = defaultOffloadWorkers
	}
	p := &offloadPool{
		exec: exec,
		jobs: make(chan offloadJob, offloadQueueCapacity),
		stop: make(chan struct{}),
		done: make(chan struct{}, numWorkers),
	}
	for i := 0; i < numWorkers; i++ {
		go p.loop()
	}
	return p
}

func (p *offloadPool) loop() {
	defer func() { p.done <- struct{}{} }()
	for {
		select {
		case job := <-p.jobs:
			job.result <- p.exec.Exec(job.cmd, nil)
		case <-p.stop:
			return
		}
	}
}

// submit enqueues cmd for execution by an offload worker. It never blocks:
// a full queue returns ok=false immediately so the caller can reply with a
// capacity error instead of stalling the reactor thread.
func (p *offloadPool) submit(cmd resp.Cmd) (result chan []byte, ok bool) {
	result = make(chan []byte, 1)
	select {
	case p.jobs <- offloadJob{cmd: cmd, result: result}:
		return result, true
	default:
		return nil, false
	}
}

// close stops every offload worker and waits for them to exit.
func (p *offloadPool) close(numWorkers int) {
	close(p.stop)
	if numWorkers <= 0 {
		numWorkers = defaultOffloadWorkers
	}
	for i := 0; i < numWorkers; i++ {
		<-p.done
	}
}
