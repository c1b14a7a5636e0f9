package normalize

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blindiqa/internal/models"
	"blindiqa/pkg/filters"
)

func TestFlatPlaneNormalizesToZero(t *testing.T) {
	for _, pad := range []filters.PadMode{filters.PadReplicate, filters.PadSymmetric} {
		opts := NIQEOptions()
		opts.Padding = pad
		out, err := Normalize(models.NewConstantPlane(40, 30, 128), opts)
		require.NoError(t, err)

		for _, v := range out.Data {
			require.False(t, math.IsNaN(v))
			assert.InDelta(t, 0, v, 1e-9)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := models.NewPlane(20, 20)
	for i := range p.Data {
		p.Data[i] = rng.Float64() * 255
	}
	before := p.Clone()

	_, err := Normalize(p, ILNIQEOptions())
	require.NoError(t, err)
	assert.Equal(t, before.Data, p.Data)
}

func TestNormalizeIsShiftInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := models.NewPlane(24, 24)
	for i := range p.Data {
		p.Data[i] = rng.NormFloat64() * 20
	}
	shifted := p.Map(func(v float64) float64 { return v + 100 })

	a, err := Normalize(p, NIQEOptions())
	require.NoError(t, err)
	b, err := Normalize(shifted, NIQEOptions())
	require.NoError(t, err)
	for i := range a.Data {
		assert.InDelta(t, a.Data[i], b.Data[i], 1e-6)
	}
}

func TestNormalizeBoundedByContrast(t *testing.T) {
	// a step edge: normalised magnitude stays well below the raw step of 200
	p := models.NewPlane(16, 16)
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			p.Set(x, y, 200)
		}
	}
	out, err := Normalize(p, NIQEOptions())
	require.NoError(t, err)
	for _, v := range out.Data {
		assert.Less(t, math.Abs(v), 10.0)
	}
	assert.Less(t, out.At(7, 8), 0.0)
	assert.Greater(t, out.At(8, 8), 0.0)
}

func TestNormalizeRejectsBadOptions(t *testing.T) {
	_, err := Normalize(models.NewPlane(4, 4), Options{KernelSize: 0, Sigma: 1})
	assert.Error(t, err)

	_, err = Normalize(models.NewPlane(4, 4), Options{KernelSize: 3, Sigma: 1, C: -1})
	assert.Error(t, err)
}
