package carla

import (
	"fmt"

	"github.com/drivesim/carla-rl-env/core"
)

// EnvConstructor builds one environment per worker. Each instance gets
// its own simulator process and a decorrelated random seed.
type EnvConstructor struct {
	config *MultiEnvConfig
	deps   Deps
}

var _ core.EnvironmentConstructor = &EnvConstructor{}

func NewEnvConstructor(config *MultiEnvConfig, deps *Deps) (*EnvConstructor, error) {
	// construct one throwaway instance to surface config errors early
	if _, err := NewMultiAgentEnv(config, deps); err != nil {
		return nil, err
	}
	c := &EnvConstructor{config: config}
	if deps != nil {
		c.deps = *deps
	}
	return c, nil
}

func (c *EnvConstructor) NewEnvironment(instance int) core.Environment {
	deps := c.deps
	if deps.Seed != 0 {
		deps.Seed += int64(instance)
	}
	env, err := NewMultiAgentEnv(c.config, &deps)
	if err != nil {
		// config was validated in NewEnvConstructor
		panic(fmt.Errorf("constructing environment %d: %w", instance, err))
	}
	return env
}
