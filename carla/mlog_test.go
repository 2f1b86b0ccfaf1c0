package carla

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasurementLogWritesOneRecordPerStep(t *testing.T) {
	dir := t.TempDir()
	log := newMeasurementLog(dir, "ep1", false)

	require.NoError(t, log.Write(&Measurement{EpisodeID: "ep1", Step: 0}))
	require.NoError(t, log.Write(&Measurement{EpisodeID: "ep1", Step: 1}))
	require.NoError(t, log.Close())

	file, err := os.Open(filepath.Join(dir, "measurements_ep1.json"))
	require.NoError(t, err)
	defer file.Close()

	var steps []int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var m Measurement
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		assert.Equal(t, "ep1", m.EpisodeID)
		steps = append(steps, m.Step)
	}
	assert.Equal(t, []int{0, 1}, steps)
}

func TestMeasurementLogAppendsAfterReopen(t *testing.T) {
	dir := t.TempDir()

	log := newMeasurementLog(dir, "ep1", false)
	require.NoError(t, log.Write(&Measurement{Step: 0}))
	require.NoError(t, log.Close())

	// a soft reset reuses the episode id, earlier records must survive
	require.NoError(t, log.Write(&Measurement{Step: 1}))
	require.NoError(t, log.Close())

	bs, err := os.ReadFile(filepath.Join(dir, "measurements_ep1.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(bs))
}

func TestMeasurementLogCompressed(t *testing.T) {
	dir := t.TempDir()
	log := newMeasurementLog(dir, "ep2", true)

	require.NoError(t, log.Write(&Measurement{EpisodeID: "ep2"}))
	require.NoError(t, log.Close())

	file, err := os.Open(filepath.Join(dir, "measurements_ep2.json.gz"))
	require.NoError(t, err)
	defer file.Close()

	gz, err := gzip.NewReader(file)
	require.NoError(t, err)
	defer gz.Close()

	var m Measurement
	require.NoError(t, json.NewDecoder(gz).Decode(&m))
	assert.Equal(t, "ep2", m.EpisodeID)
}

func TestMeasurementLogCloseIdempotent(t *testing.T) {
	log := newMeasurementLog(t.TempDir(), "ep3", false)
	require.NoError(t, log.Close(), "closing an unopened log is a no-op")
	require.NoError(t, log.Write(&Measurement{}))
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())
}

func countLines(bs []byte) int {
	n := 0
	for _, b := range bs {
		if b == '\n' {
			n++
		}
	}
	return n
}
