package sim

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// Registry tracks the process group of every live simulator so that an
// interrupt, a termination signal or a normal shutdown can force-kill
// all of them. One registry is shared by every environment instance in
// the process: an orphaned simulator must never outlive the host.
type Registry struct {
	mu     sync.Mutex
	groups map[int]struct{}
	kill   func(pgid int) error
	log    *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		groups: make(map[int]struct{}),
		kill: func(pgid int) error {
			return syscall.Kill(-pgid, syscall.SIGKILL)
		},
		log: log,
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, creating it on
// first use. Callers that want signal-driven cleanup must also call
// Watch once.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(zap.NewNop())
	})
	return defaultRegistry
}

func (r *Registry) Add(pgid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[pgid] = struct{}{}
}

func (r *Registry) Remove(pgid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, pgid)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

// KillAll force-kills every tracked process group. Idempotent: groups
// are dropped from the registry whether or not the kill succeeded.
func (r *Registry) KillAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pgid := range r.groups {
		if err := r.kill(pgid); err != nil {
			r.log.Warn("failed to kill simulator process group",
				zap.Int("pgid", pgid), zap.Error(err))
		}
		delete(r.groups, pgid)
	}
}

// Watch installs a handler that kills every tracked process group when
// the process receives SIGINT or SIGTERM, then re-raises the default
// behaviour by exiting. Returns a stop function for tests.
func (r *Registry) Watch() func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			r.log.Info("received signal, killing live simulator processes",
				zap.String("signal", sig.String()), zap.Int("count", r.Len()))
			r.KillAll()
			os.Exit(1)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
