package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blindiqa/internal/models"
)

func rampPlane(w, h int) *models.Plane {
	p := models.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.Set(x, y, math.Sin(float64(x)*0.7)+0.3*float64(y)+0.01*float64(x*y))
		}
	}
	return p
}

func TestGaussianIsNormalisedAndSymmetric(t *testing.T) {
	for _, tc := range []struct {
		size  int
		sigma float64
	}{{7, 7.0 / 6}, {5, 5.0 / 6}, {6, 0.9}} {
		k, err := Gaussian(tc.size, tc.sigma)
		require.NoError(t, err)

		sum := 0.0
		for _, v := range k.Data {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)

		for y := 0; y < k.Height; y++ {
			for x := 0; x < k.Width; x++ {
				assert.InDelta(t, k.At(x, y), k.At(k.Width-1-x, k.Height-1-y), 1e-15)
				assert.InDelta(t, k.At(x, y), k.At(y, x), 1e-15)
			}
		}
		assert.True(t, k.Separable())
	}

	_, err := Gaussian(0, 1)
	assert.Error(t, err)
	_, err = Gaussian(3, 0)
	assert.Error(t, err)
}

func TestGaussianDerivativeShape(t *testing.T) {
	dx, dy, err := GaussianDerivative(1.66)
	require.NoError(t, err)

	// half length ceil(3*1.66) = 5
	assert.Equal(t, 11, dx.Width)
	assert.Equal(t, 11, dx.Height)

	// dx is odd along x and even along y, dy the transpose
	assert.InDelta(t, -dx.At(2, 4), dx.At(8, 4), 1e-15)
	assert.InDelta(t, dx.At(2, 4), dx.At(2, 6), 1e-15)
	assert.InDelta(t, dx.At(3, 7), dy.At(7, 3), 1e-15)
	assert.Equal(t, 0.0, dx.At(5, 5))
}

func TestSeparableMatchesDense(t *testing.T) {
	p := rampPlane(23, 17)
	k, err := Gaussian(7, 7.0/6)
	require.NoError(t, err)
	dense, err := NewKernel(k.Width, k.Height, k.Data)
	require.NoError(t, err)

	for _, mode := range []PadMode{PadZero, PadReplicate, PadSymmetric} {
		a := Correlate(p, k, mode)
		b := Correlate(p, dense, mode)
		for i := range a.Data {
			require.InDelta(t, b.Data[i], a.Data[i], 1e-10, "mode %s index %d", mode, i)
		}
	}
}

func TestReplicatePaddingPreservesConstant(t *testing.T) {
	p := models.NewConstantPlane(12, 9, 128)
	k, err := Gaussian(6, 0.9)
	require.NoError(t, err)

	out := Correlate(p, k, PadReplicate)
	for _, v := range out.Data {
		assert.InDelta(t, 128.0, v, 1e-9)
	}

	zero := Correlate(p, k, PadZero)
	assert.Less(t, zero.At(0, 0), 128.0, "zero padding darkens the corner")
}

func TestSourceIndex(t *testing.T) {
	idx, ok := sourceIndex(-1, 5, PadSymmetric)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, _ = sourceIndex(-2, 5, PadSymmetric)
	assert.Equal(t, 1, idx)

	idx, _ = sourceIndex(6, 5, PadSymmetric)
	assert.Equal(t, 3, idx)

	idx, _ = sourceIndex(7, 5, PadReplicate)
	assert.Equal(t, 4, idx)

	_, ok = sourceIndex(-1, 5, PadZero)
	assert.False(t, ok)
}

func TestConvolveFlipsKernel(t *testing.T) {
	p := models.NewPlane(5, 5)
	p.Set(2, 2, 1)
	k, err := NewKernel(3, 1, []float64{1, 2, 3})
	require.NoError(t, err)

	corr := Correlate(p, k, PadZero)
	conv := Convolve(p, k, PadZero)

	// an impulse reproduces the kernel, reversed for correlation
	assert.Equal(t, []float64{3, 2, 1}, corr.Data[2*5+1:2*5+4])
	assert.Equal(t, []float64{1, 2, 3}, conv.Data[2*5+1:2*5+4])
}

func TestParsePadMode(t *testing.T) {
	m, err := ParsePadMode("Replicate")
	require.NoError(t, err)
	assert.Equal(t, PadReplicate, m)

	m, err = ParsePadMode("same")
	require.NoError(t, err)
	assert.Equal(t, PadZero, m)

	_, err = ParsePadMode("circular")
	assert.Error(t, err)
}

func TestFFTRoundTrip(t *testing.T) {
	p := rampPlane(15, 8)
	spec := FFT2(p)

	// DC term is the sum of the samples
	sum := 0.0
	for _, v := range p.Data {
		sum += v
	}
	assert.InDelta(t, sum, real(spec.Data[0]), 1e-9)

	back := IFFT2(spec)
	for i, v := range p.Data {
		assert.InDelta(t, v, real(back.Data[i]), 1e-9)
		assert.InDelta(t, 0, imag(back.Data[i]), 1e-9)
	}
}

func TestLogGaborBank(t *testing.T) {
	lg := LogGabor{Scales: 3, Orientations: 4, MinWavelength: 2.4, Mult: 1.31, SigmaOnf: 0.55, DThetaOnSigma: 1.1}
	bank, err := lg.Build(32, 24)
	require.NoError(t, err)
	require.Len(t, bank, 12)

	for i, f := range bank {
		require.Len(t, f, 32*24)
		assert.Equal(t, 0.0, f[0], "filter %d must reject DC", i)
		for _, v := range f {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	// orientation 0 passes horizontal frequencies, orientation 2 (π/2) vertical ones.
	// Lobes are one-sided: θ = atan2(-fy, fx), so +π/2 sits at negative fy (row 24-3).
	horizontal := 3     // (x=3, y=0)
	vertical := 21 * 32 // (x=0, y=21)
	o0 := bank[lg.Index(0, 0)]
	o2 := bank[lg.Index(0, 2)]
	assert.Greater(t, o0[horizontal], o0[vertical])
	assert.Greater(t, o2[vertical], o2[horizontal])

	_, err = LogGabor{Scales: 0}.Build(8, 8)
	assert.Error(t, err)
}

func TestResponseOfZeroIsZero(t *testing.T) {
	lg := LogGabor{Scales: 1, Orientations: 2, MinWavelength: 3, Mult: 2, SigmaOnf: 0.55, DThetaOnSigma: 1.2}
	bank, err := lg.Build(16, 16)
	require.NoError(t, err)

	spec := FFT2(models.NewConstantPlane(16, 16, 42))
	re, im, err := Response(spec, bank[0])
	require.NoError(t, err)
	for i := range re.Data {
		assert.InDelta(t, 0, re.Data[i], 1e-9)
		assert.InDelta(t, 0, im.Data[i], 1e-9)
	}

	_, _, err = Response(spec, bank[0][:10])
	assert.Error(t, err)
}
