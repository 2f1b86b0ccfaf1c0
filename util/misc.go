package util

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
)

func JsonHash(s interface{}) string {
	bs, _ := json.Marshal(s)
	hash := sha256.Sum256(bs)
	return hex.EncodeToString(hash[:])
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sigmoid is the logistic function, used to squash raw action logits.
func Sigmoid(x float64) float64 {
	return math.Exp(x) / (1 + math.Exp(x))
}
