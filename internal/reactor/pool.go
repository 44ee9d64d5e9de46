package reactor

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cyclechain/ignix/internal/interfaces"
)

// newConfigError builds the structured error for a Config validation
// failure, reported before any worker attempts to bind.
func newConfigError(msg string) error {
	return interfaces.NewError("reactor.NewPool", interfaces.ErrCodeInvalid, msg)
}

// Pool runs one reactor worker per configured thread, all sharing the same
// listen address via SO_REUSEPORT.
type Pool struct {
	cfg     Config
	workers []*worker
	offload *offloadPool
	wg      sync.WaitGroup
	errs    chan error
}

// NewPool validates cfg, filling in defaults, and returns a Pool ready for
// Start.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.ListenAddr == "" {
		return nil, newConfigError("ListenAddr is required")
	}
	if cfg.Exec == nil {
		return nil, newConfigError("Exec is required")
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = interfaces.NoOpLogger{}
	}
	if cfg.Observer == nil {
		cfg.Observer = interfaces.NoOpObserver{}
	}
	return &Pool{cfg: cfg, errs: make(chan error, cfg.NumWorkers)}, nil
}

// Start binds every worker's listener synchronously, returning the first
// bind error encountered (and tearing down any workers already bound), then
// launches their epoll loops in the background.
func (p *Pool) Start() error {
	if p.cfg.Offload {
		p.offload = newOffloadPool(p.cfg.Exec, p.cfg.OffloadWorkers)
	}

	for i := 0; i < p.cfg.NumWorkers; i++ {
		w := newWorker(i, &p.cfg)
		w.offload = p.offload
		if err := w.bind(); err != nil {
			for _, started := range p.workers {
				started.closeListener()
			}
			return interfaces.WrapError(fmt.Sprintf("reactor.worker[%d].bind", i), err)
		}
		p.workers = append(p.workers, w)
	}

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *worker) {
			defer p.wg.Done()
			if err := w.run(); err != nil {
				select {
				case p.errs <- err:
				default:
				}
			}
		}(w)
	}
	return nil
}

// Stop signals every worker to tear down its connections and exit, then
// waits for them to finish.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.stop)
	}
	p.wg.Wait()
	if p.offload != nil {
		p.offload.close(p.cfg.OffloadWorkers)
	}
}

// Err returns a channel that receives any error a worker's run loop exits
// with (other than via Stop). Closed workers send nothing.
func (p *Pool) Err() <-chan error {
	return p.errs
}
