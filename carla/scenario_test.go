package carla

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickScenarioSingleEntry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s, err := pickScenario(rng, "DEFAULT_SCENARIO_TOWN1")
	require.NoError(t, err)
	assert.Equal(t, "36", s.StartPosID)
	assert.Equal(t, "40", s.EndPosID)
	assert.Equal(t, 200, s.MaxSteps)
}

func TestPickScenarioDrawsFromSet(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s, err := pickScenario(rng, "TOWN1_STRAIGHT")
		require.NoError(t, err)
		seen[s.Name] = true
	}
	assert.Greater(t, len(seen), 1, "a multi-entry set should not always pick the same scenario")
}

func TestPickScenarioUnknownSet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := pickScenario(rng, "NO_SUCH_SET")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestResolvePositions(t *testing.T) {
	s := scenarioTables["DEFAULT_SCENARIO_TOWN1"][0]
	start, end, err := resolvePositions("Town01", s)
	require.NoError(t, err)
	assert.Equal(t, town01NodeCoords["36"], start)
	assert.Equal(t, town01NodeCoords["40"], end)

	_, _, err = resolvePositions("Town99", s)
	assert.ErrorIs(t, err, ErrConfig)

	bad := s
	bad.StartPosID = "9999"
	_, _, err = resolvePositions("Town01", bad)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestCoarseCoord(t *testing.T) {
	assert.Equal(t, [2]int{1, 3}, coarseCoord([3]float64{107.7, 326.9, 39}))
	assert.Equal(t, [2]int{-1, 0}, coarseCoord([3]float64{-50, 50, 39}))
}
