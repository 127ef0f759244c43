package randengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citygrid-lab/gridtraffic-sim/utils/randengine"
)

func TestEngineReproducible(t *testing.T) {
	a := randengine.New(1)
	b := randengine.New(1)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestPTrue(t *testing.T) {
	e := randengine.New(1)
	for i := 0; i < 100; i++ {
		assert.False(t, e.PTrue(0))
		assert.True(t, e.PTrue(1))
	}
}

func TestDiscreteDistribution(t *testing.T) {
	e := randengine.New(1)
	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		idx := e.DiscreteDistribution([]float64{1, 1, 0})
		assert.True(t, idx == 0 || idx == 1)
		counts[idx]++
	}
	// roughly even between the two weighted entries
	assert.Greater(t, counts[0], 1000)
	assert.Greater(t, counts[1], 1000)
	assert.Equal(t, 0, counts[2])
}
