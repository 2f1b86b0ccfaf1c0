package sim

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"go.uber.org/zap"

	"github.com/drivesim/carla-rl-env/util"
)

// Process is a handle to a launched simulator.
type Process struct {
	Cmd  *exec.Cmd
	Port int
	pgid int
}

// SupervisorConfig describes how to launch the simulator binary.
type SupervisorConfig struct {
	Binary     string
	ServerMap  string
	Render     bool
	RenderXRes int
	RenderYRes int
}

// Supervisor launches and kills simulator processes. Every launched
// process gets its own process group and is tracked in the registry
// until terminated.
type Supervisor struct {
	config   SupervisorConfig
	registry *Registry
	log      *zap.Logger

	// probeGPUs is swapped in tests
	probeGPUs func(context.Context) []GPU
}

func NewSupervisor(config SupervisorConfig, registry *Registry, log *zap.Logger) *Supervisor {
	return &Supervisor{
		config:    config,
		registry:  registry,
		log:       log,
		probeGPUs: ProbeGPUs,
	}
}

// Launch starts the simulator bound to a freshly reserved port. With
// rendering off and GPUs present it prefers a headless launch pinned to
// the least-loaded GPU; any failure there falls back to a windowed
// single-GPU launch.
func (s *Supervisor) Launch(ctx context.Context) (*Process, error) {
	if s.config.Binary == "" {
		return nil, errors.New("no simulator binary configured")
	}

	port, err := util.GetFreeTCPPort()
	if err != nil {
		return nil, fmt.Errorf("reserving simulator port: %w", err)
	}

	var cmd *exec.Cmd
	started := false
	if gpus := s.probeGPUs(ctx); !s.config.Render && len(gpus) > 0 {
		gpu := LeastLoadedGPU(gpus)
		shellCmd := fmt.Sprintf(
			"DISPLAY=:8 vglrun -d :7.%d %s %s -benchmark -fps=10 -carla-server -carla-world-port=%d",
			gpu, s.config.Binary, s.config.ServerMap, port,
		)
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", shellCmd)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		if err := cmd.Start(); err != nil {
			s.log.Warn("multi-GPU launch failed, falling back to windowed mode", zap.Error(err))
		} else {
			started = true
			s.log.Info("simulator launched in multi-GPU mode",
				zap.Int("gpu", gpu), zap.Int("port", port))
		}
	}

	if !started {
		cmd = exec.CommandContext(ctx,
			s.config.Binary,
			s.config.ServerMap,
			"-windowed",
			fmt.Sprintf("-ResX=%d", s.config.RenderXRes),
			fmt.Sprintf("-ResY=%d", s.config.RenderYRes),
			"-benchmark", "-fps=10",
			"-carla-server",
			fmt.Sprintf("-carla-world-port=%d", port),
		)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("launching simulator: %w", err)
		}
		s.log.Info("simulator launched in single-GPU mode", zap.Int("port", port))
	}

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		pgid = cmd.Process.Pid
	}
	s.registry.Add(pgid)

	return &Process{Cmd: cmd, Port: port, pgid: pgid}, nil
}

// Terminate force-kills the process group of p and removes it from the
// registry. Safe to call with a handle that already died.
func (s *Supervisor) Terminate(p *Process) {
	if p == nil {
		return
	}
	if p.pgid != 0 {
		_ = syscall.Kill(-p.pgid, syscall.SIGKILL)
		s.registry.Remove(p.pgid)
	}
	if p.Cmd != nil && p.Cmd.Process != nil {
		// reap, the error is expected after SIGKILL
		_ = p.Cmd.Wait()
	}
}
