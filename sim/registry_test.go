package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRegistryKillAll(t *testing.T) {
	killed := []int{}
	r := NewRegistry(zap.NewNop())
	r.kill = func(pgid int) error {
		killed = append(killed, pgid)
		return nil
	}

	r.Add(100)
	r.Add(200)
	assert.Equal(t, 2, r.Len())

	r.KillAll()
	assert.ElementsMatch(t, []int{100, 200}, killed)
	assert.Zero(t, r.Len())

	// idempotent
	r.KillAll()
	assert.Len(t, killed, 2)
}

func TestRegistryRemove(t *testing.T) {
	killed := []int{}
	r := NewRegistry(zap.NewNop())
	r.kill = func(pgid int) error {
		killed = append(killed, pgid)
		return nil
	}

	r.Add(100)
	r.Remove(100)
	r.KillAll()
	assert.Empty(t, killed, "a removed group must not be killed")
}

func TestRegistryKillAllDropsFailedGroups(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.kill = func(pgid int) error {
		return assert.AnError
	}

	r.Add(100)
	r.KillAll()
	assert.Zero(t, r.Len(), "failed kills are still dropped")
}

func TestWatchStop(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	stop := r.Watch()
	stop()
}
