package carla

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postControl(b *ManualBridge, actor, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/control/"+actor, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	b.server.Handler.ServeHTTP(w, req)
	return w
}

func TestManualBridgeStoresLatestControl(t *testing.T) {
	b := NewManualBridge(0)

	_, ok := b.Latest("car1")
	assert.False(t, ok, "nothing posted yet")

	w := postControl(b, "car1", `{"throttle": 0.4, "steer": -0.2}`)
	require.Equal(t, http.StatusOK, w.Code)

	control, ok := b.Latest("car1")
	require.True(t, ok)
	assert.Equal(t, 0.4, control.Throttle)
	assert.Equal(t, -0.2, control.Steer)

	// a later post replaces the earlier one
	postControl(b, "car1", `{"brake": 1}`)
	control, _ = b.Latest("car1")
	assert.Equal(t, 1.0, control.Brake)
	assert.Equal(t, 0.0, control.Throttle)
}

func TestManualBridgeKeysByActor(t *testing.T) {
	b := NewManualBridge(0)
	postControl(b, "car1", `{"throttle": 0.1}`)
	postControl(b, "car2", `{"throttle": 0.9}`)

	c1, _ := b.Latest("car1")
	c2, _ := b.Latest("car2")
	assert.Equal(t, 0.1, c1.Throttle)
	assert.Equal(t, 0.9, c2.Throttle)
}

func TestManualBridgeRejectsMalformedBody(t *testing.T) {
	b := NewManualBridge(0)
	w := postControl(b, "car1", `{"throttle": "fast"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, ok := b.Latest("car1")
	assert.False(t, ok)
}
