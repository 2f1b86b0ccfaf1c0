package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"go.uber.org/zap"

	"github.com/drivesim/carla-rl-env/analysis"
	"github.com/drivesim/carla-rl-env/carla"
	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/policies"
	"github.com/drivesim/carla-rl-env/sim"
	"github.com/drivesim/carla-rl-env/util"
)

// newEnvDeps wires the collaborators the CLI owns: the logger, the
// seed and, when any actor runs in manual mode, a started
// manual-control bridge that external input shims post controls to.
func newEnvDeps(ctx context.Context, config *carla.MultiEnvConfig) (*carla.Deps, error) {
	deps := &carla.Deps{Logger: logger, Seed: seed}

	manual := false
	for _, actor := range config.Actors {
		if actor.ControlMode() == carla.Manual {
			manual = true
			break
		}
	}
	if !manual {
		return deps, nil
	}

	port := manualPort
	if port == 0 {
		free, err := util.GetFreeTCPPort()
		if err != nil {
			return nil, err
		}
		port = free
	}
	bridge := carla.NewManualBridge(port)
	bridge.Start(ctx)
	logger.Info("manual control bridge listening", zap.Int("port", port))
	deps.Manual = bridge
	return deps, nil
}

func RunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the random and command-follower experiments on one config",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := carla.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			registry := sim.DefaultRegistry()
			stopWatch := registry.Watch()
			defer stopWatch()
			defer registry.KillAll()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			deps, err := newEnvDeps(ctx, config)
			if err != nil {
				return err
			}
			envCtor, err := carla.NewEnvConstructor(config, deps)
			if err != nil {
				return err
			}

			comparison := core.NewParallelComparison()
			comparison.AddExperiment(&core.ParallelExperiment{
				Name:        "random",
				Environment: envCtor,
				Policy: &policies.RandomPolicyConstructor{
					Seed:     seed,
					Discrete: config.Env.DiscreteActions,
				},
			})
			if config.Env.DiscreteActions {
				comparison.AddExperiment(&core.ParallelExperiment{
					Name:        "follow-planner",
					Environment: envCtor,
					Policy: &policies.CommandFollowerConstructor{
						Seed:    uint64(seed),
						Epsilon: epsilon,
					},
				})
			}
			comparison.AddAnalysis("reward",
				&analysis.RewardAnalyzerConstructor{},
				&analysis.RewardComparatorConstructor{SavePath: savePath})
			comparison.AddAnalysis("safety",
				&analysis.SafetyAnalyzerConstructor{},
				&analysis.SafetyComparatorConstructor{})

			comparison.Run(ctx, numRuns, runConfig(), parallelism)
			return nil
		},
	}
}
