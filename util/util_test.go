package util

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMillis(t *testing.T) {
	assert.InDelta(t, 1.5, Millis(1500*time.Microsecond), 1e-9)
	assert.Equal(t, 0.0, Millis(0))
}

func TestMB(t *testing.T) {
	assert.Equal(t, 2.0, MB(2*1024*1024))
	assert.Equal(t, -0.5, MB(-512*1024))
}

func TestPercentile(t *testing.T) {
	assert.True(t, math.IsNaN(Percentile([]float64{1}, 95)))
	assert.Equal(t, 5.0, Percentile([]float64{5, 1, 3, 2, 4}, 100))
	assert.Equal(t, 2.0, Percentile([]float64{4, 3, 2, 1}, 50))
	assert.InDelta(t, 1.5, Percentile([]float64{1, 2, 3}, 50), 1e-9)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 7}}, Chunks(7, 3))
	assert.Equal(t, [][2]int{{0, 4}}, Chunks(4, 0))
	assert.Empty(t, Chunks(0, 10))
}

func TestRandomString(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := RandomString(rng.IntN, 8)
	assert.Len(t, s, 8)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, s)
}
