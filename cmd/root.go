package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/drivesim/carla-rl-env/util"
)

var logger *zap.Logger

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivesim",
		Short: "Multi-agent RL experiments on an external driving simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env file is fine, the variables may come from
			// the environment directly
			if envFile != "" {
				_ = godotenv.Load(envFile)
			} else {
				_ = godotenv.Load()
			}
			logger = util.NewLogger(verbose)
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		RunCommand(),
	)

	return cmd
}
