package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameSeedSameStream(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float(), b.Float())
	}
}

func TestZeroSeedIsReplaced(t *testing.T) {
	s := New(0)
	assert.NotZero(t, s.Seed())
}

func TestUniformAndIntRangeBounds(t *testing.T) {
	s := New(7)
	for i := 0; i < 1000; i++ {
		v := s.Uniform(-2, 2)
		assert.GreaterOrEqual(t, v, -2.0)
		assert.Less(t, v, 2.0)

		n := s.IntRange(3, 5)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
	}
	assert.Equal(t, 4, s.IntRange(4, 4))
}

func TestChanceExtremes(t *testing.T) {
	s := New(9)
	for i := 0; i < 100; i++ {
		assert.False(t, s.Chance(0))
		assert.True(t, s.Chance(1))
	}
}
