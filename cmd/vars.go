package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/drivesim/carla-rl-env/core"
)

var (
	configPath string
	envFile    string
	savePath   string
	verbose    bool
	seed       int64
	epsilon    float64
	manualPort int

	numRuns                int
	episodes               int
	horizon                int
	episodeTimeout         int
	maxConsecutiveErrors   int
	maxConsecutiveTimeouts int
	parallelism            int
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&configPath, "config", "configs/town1.json", "Path to the environment config file")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Optional .env file with CARLA_SERVER and CARLA_OUT")
	cmd.PersistentFlags().StringVar(&savePath, "save-path", "results", "Directory to save analysis datasets")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed, 0 picks one from the clock")
	cmd.PersistentFlags().Float64Var(&epsilon, "epsilon", 0.2, "Exploration probability of the command follower")
	cmd.PersistentFlags().IntVar(&manualPort, "manual-port", 8000, "Port of the manual control bridge, 0 picks a free one")

	cmd.PersistentFlags().IntVar(&numRuns, "num-runs", 1, "Number of runs")
	cmd.PersistentFlags().IntVar(&episodes, "episodes", 100, "Number of episodes per run")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", 500, "Maximum steps per episode")
	cmd.PersistentFlags().IntVar(&episodeTimeout, "episode-timeout", 600, "Episode timeout in seconds")
	cmd.PersistentFlags().IntVar(&maxConsecutiveErrors, "max-consecutive-errors", 5, "Number of consecutive errored episodes to give up after")
	cmd.PersistentFlags().IntVar(&maxConsecutiveTimeouts, "max-consecutive-timeouts", 5, "Number of consecutive timed out episodes to give up after")
	cmd.PersistentFlags().IntVar(&parallelism, "parallelism", 1, "Number of parallel workers, one simulator each")
}

func runConfig() *core.RunConfig {
	return &core.RunConfig{
		Episodes:                     episodes,
		Horizon:                      horizon,
		EpisodeTimeout:               time.Duration(episodeTimeout) * time.Second,
		ThresholdConsecutiveErrors:   maxConsecutiveErrors,
		ThresholdConsecutiveTimeouts: maxConsecutiveTimeouts,
	}
}
