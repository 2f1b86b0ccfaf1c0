package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-2, 0, 1))
	assert.Equal(t, 1.0, Clamp(7, 0, 1))
}

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-9)
	assert.InDelta(t, 1.0, Sigmoid(100), 1e-9)
	assert.InDelta(t, 0.0, Sigmoid(-100), 1e-9)
}

func TestJsonHashIsStable(t *testing.T) {
	type payload struct {
		A int
		B string
	}
	h1 := JsonHash(payload{A: 1, B: "x"})
	h2 := JsonHash(payload{A: 1, B: "x"})
	h3 := JsonHash(payload{A: 2, B: "x"})
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestGetFreeTCPPort(t *testing.T) {
	port, err := GetFreeTCPPort()
	require.NoError(t, err)
	assert.Greater(t, port, 0)
	assert.LessOrEqual(t, port, 65535)
}
