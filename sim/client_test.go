package sim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drivesim/carla-rl-env/util"
)

func testServer(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client := NewClient(port)
	t.Cleanup(client.Close)
	return client
}

func TestServerVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"version": "0.8.2"})
	})
	client := testServer(t, mux)

	version, err := client.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.8.2", version)
}

func TestSpawnVehicle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/actor/spawn", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Type      string    `json:"type"`
			Transform Transform `json:"transform"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "vehicle", body.Type)
		if body.Transform.Location.X < 0 {
			json.NewEncoder(w).Encode(map[string]string{"id": ""})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "42"})
	})
	client := testServer(t, mux)

	id, err := client.SpawnVehicle(context.Background(), Transform{Location: Vec3{X: 10}})
	require.NoError(t, err)
	assert.Equal(t, ActorID("42"), id)

	_, err = client.SpawnVehicle(context.Background(), Transform{Location: Vec3{X: -1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spawn rejected")
}

func TestSensorReads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sensor/c1/collisions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CollisionCounts{Vehicles: 2, Other: 1})
	})
	mux.HandleFunc("/sensor/l1/lane", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(LaneFlags{OffLane: true})
	})
	client := testServer(t, mux)

	counts, err := client.CollisionCounts(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Vehicles)
	assert.Equal(t, 1, counts.Other)

	flags, err := client.LaneFlags(context.Background(), "l1")
	require.NoError(t, err)
	assert.True(t, flags.OffLane)
	assert.False(t, flags.OffRoad)
}

func TestNon200IsAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/actor/7/control", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such actor", http.StatusNotFound)
	})
	client := testServer(t, mux)

	err := client.ApplyControl(context.Background(), "7", VehicleControl{Throttle: 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestConnectRetriesUntilServerAnswers(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "starting up", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"version": "0.8.2"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client, err := Connect(context.Background(), port, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()
	assert.GreaterOrEqual(t, attempts, 3)
}

func TestConnectHonorsContext(t *testing.T) {
	port, err := util.GetFreeTCPPort()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Connect(ctx, port, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}
