package ignix

import (
	"github.com/cyclechain/ignix/internal/aof"
	"github.com/cyclechain/ignix/internal/executor"
	"github.com/cyclechain/ignix/internal/interfaces"
	"github.com/cyclechain/ignix/internal/logging"
	"github.com/cyclechain/ignix/internal/reactor"
	"github.com/cyclechain/ignix/internal/store"
)

// defaultListenAddr is the bind address used when ServerConfig.ListenAddr
// is left empty.
const defaultListenAddr = "0.0.0.0:7379"

// defaultAOFPath is the durability log path used when ServerConfig.AOFPath
// is left empty.
const defaultAOFPath = "ignix.aof"

// ServerConfig configures a Server. Every field is optional; zero values
// fall back to the spec's defaults.
type ServerConfig struct {
	// ListenAddr is the TCP address to bind. Defaults to "0.0.0.0:7379".
	ListenAddr string
	// NumWorkers is the number of reactor workers. Defaults to
	// runtime.NumCPU() inside internal/reactor when zero.
	NumWorkers int
	// DisableAOF skips opening the durability log entirely, equivalent to
	// running with logging permanently disabled.
	DisableAOF bool
	// AOFPath is the durability log file path. Defaults to "ignix.aof".
	AOFPath string
	// Offload routes command execution through a bounded worker pool
	// instead of running it inline on the reactor thread. Off by default.
	Offload bool
	// OffloadWorkers sizes the offload pool when Offload is set.
	OffloadWorkers int
	// Logger receives operational log lines. Defaults to logging.Default().
	Logger *logging.Logger
}

// Server wires together the store, durability log, command executor, and
// reactor pool into one runnable process, the way cmd/ublk-mem/main.go
// wired together a Backend, Params, and device lifecycle in the teacher.
type Server struct {
	cfg     ServerConfig
	store   *store.Store
	aofW    *aof.Writer
	exec    *executor.Executor
	pool    *reactor.Pool
	metrics *Metrics
	logger  *logging.Logger
}

// NewServer builds a Server from cfg, opening the durability log (if
// enabled) and constructing the executor and reactor pool. A durability
// log open failure is logged and silently disables logging rather than
// failing construction, per the spec's error-handling design.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.AOFPath == "" {
		cfg.AOFPath = defaultAOFPath
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	s := store.New()
	metrics := NewMetrics()
	observer := NewMetricsObserver(metrics)

	var logW *aof.Writer
	if !cfg.DisableAOF {
		w, err := aof.Open(cfg.AOFPath, cfg.Logger)
		if err != nil {
			aerr := WrapError("AOF_OPEN", err)
			aerr.Code = ErrCodeAOFDisabled
			cfg.Logger.Warnf("durability logging disabled: %v", aerr)
		} else {
			logW = w
		}
	}

	var logWriter interfaces.LogWriter
	if logW != nil {
		logWriter = logW
	}
	exec := executor.New(s, logWriter, observer)

	pool, err := reactor.NewPool(reactor.Config{
		ListenAddr:     cfg.ListenAddr,
		NumWorkers:     cfg.NumWorkers,
		Exec:           exec,
		Logger:         cfg.Logger,
		Observer:       observer,
		Offload:        cfg.Offload,
		OffloadWorkers: cfg.OffloadWorkers,
	})
	if err != nil {
		if logW != nil {
			logW.Close()
		}
		return nil, WrapError("BIND", err)
	}

	return &Server{
		cfg:     cfg,
		store:   s,
		aofW:    logW,
		exec:    exec,
		pool:    pool,
		metrics: metrics,
		logger:  cfg.Logger,
	}, nil
}

// Start binds the reactor's listeners and begins serving connections. It
// returns once every worker has bound successfully; serving continues in
// background goroutines until Stop is called.
func (s *Server) Start() error {
	if err := s.pool.Start(); err != nil {
		return WrapError("BIND", err)
	}
	s.logger.Infof("ignix running on %s", s.cfg.ListenAddr)
	return nil
}

// Stop tears down every connection and worker, then closes the durability
// log, draining any records still queued.
func (s *Server) Stop() {
	s.pool.Stop()
	if s.aofW != nil {
		s.aofW.Close()
	}
	s.metrics.Stop()
}

// Metrics returns the server's metrics instance for external inspection
// (e.g. a future stats endpoint).
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Addr returns the address the server is configured to bind.
func (s *Server) Addr() string {
	return s.cfg.ListenAddr
}
