package mvg

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNanMean(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, math.NaN(),
		3, 4,
		math.Inf(1), 8,
	})
	mean, err := NanMean(m)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, mean[0], 1e-12)
	assert.InDelta(t, 6.0, mean[1], 1e-12)

	_, err = NanMean(mat.NewDense(2, 1, []float64{math.NaN(), math.NaN()}))
	assert.ErrorIs(t, err, ErrNoFiniteData)
}

func TestNanToNum(t *testing.T) {
	m := mat.NewDense(1, 4, []float64{math.NaN(), math.Inf(1), math.Inf(-1), 2})
	out := NanToNum(m)
	assert.Equal(t, []float64{0, math.MaxFloat64, -math.MaxFloat64, 2}, out.RawRowView(0))
	assert.True(t, math.IsNaN(m.At(0, 0)), "input must stay untouched")
}

func TestDropNonFiniteRows(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{
		1, 2,
		math.NaN(), 0,
		3, 4,
		5, math.Inf(-1),
	})
	kept, dropped := DropNonFiniteRows(m)
	require.NotNil(t, kept)
	r, c := kept.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{1, 2}, kept.RawRowView(0))
	assert.Equal(t, []float64{3, 4}, kept.RawRowView(1))
	assert.Equal(t, []uint32{1, 3}, dropped.ToArray())

	none, all := DropNonFiniteRows(mat.NewDense(1, 1, []float64{math.NaN()}))
	assert.Nil(t, none)
	assert.Equal(t, uint64(1), all.GetCardinality())
}

func TestFillNonFinite(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{math.NaN(), 1, 2, math.Inf(1)})
	out, err := FillNonFinite(m, []float64{10, 20})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 1, 2, 20}, out.RawMatrix().Data)

	_, err = FillNonFinite(m, []float64{1})
	var dimErr *ErrDimensionMismatch
	assert.True(t, errors.As(err, &dimErr))
}

func TestCovariance(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{
		1, 2,
		2, 4,
		3, 6,
		4, 8,
	})
	cov, err := Covariance(m, false)
	require.NoError(t, err)
	// var(1..4) with n-1 normalisation is 5/3
	assert.InDelta(t, 5.0/3, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 10.0/3, cov.At(0, 1), 1e-12)
	assert.InDelta(t, 20.0/3, cov.At(1, 1), 1e-12)

	biased, err := Covariance(m, true)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, biased.At(0, 0), 1e-12)

	_, err = Covariance(mat.NewDense(1, 2, []float64{1, 2}), false)
	assert.ErrorIs(t, err, ErrInsufficientBlocks)
}

func TestPinvInvertible(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{4, 1, 1, 3})
	p, err := Pinv(a)
	require.NoError(t, err)

	var prod mat.Dense
	prod.Mul(a, p)
	assert.True(t, mat.EqualApprox(&prod, mat.NewDiagDense(2, []float64{1, 1}), 1e-12))
}

func TestPinvSingular(t *testing.T) {
	// rank one: pinv(x xᵀ) = x xᵀ / |x|⁴
	a := mat.NewDense(2, 2, []float64{1, 2, 2, 4})
	p, err := Pinv(a)
	require.NoError(t, err)
	want := mat.NewDense(2, 2, []float64{1.0 / 25, 2.0 / 25, 2.0 / 25, 4.0 / 25})
	assert.True(t, mat.EqualApprox(p, want, 1e-12))

	zero, err := Pinv(mat.NewDense(2, 2, nil))
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(zero, mat.NewDense(2, 2, nil), 0))
}

func TestPooledDistance(t *testing.T) {
	id := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	d, err := PooledDistance([]float64{3, 4}, []float64{0, 0}, id, id)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-12)

	self, err := PooledDistance([]float64{1, 2}, []float64{1, 2}, id, id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, self)

	// averaged covariance of 4I and 0 is 2I
	four := mat.NewSymDense(2, []float64{4, 0, 0, 4})
	zero := mat.NewSymDense(2, nil)
	d, err = PooledDistance([]float64{2, 0}, []float64{0, 0}, four, zero)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(2), d, 1e-12)
}

func TestPooledDistanceDimensionMismatch(t *testing.T) {
	id2 := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	id3 := mat.NewSymDense(3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})

	_, err := PooledDistance([]float64{1, 2, 3}, []float64{0, 0}, id2, id2)
	var dimErr *ErrDimensionMismatch
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Actual)

	_, err = PooledDistance([]float64{1, 2}, []float64{0, 0}, id3, id2)
	assert.True(t, errors.As(err, &dimErr))
}

func TestPerBlockDistance(t *testing.T) {
	id := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	blocks := mat.NewDense(2, 2, []float64{
		3, 4,
		0, 1,
	})
	d, err := PerBlockDistance(blocks, []float64{0, 0}, id, id)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, d, 1e-12)

	_, err = PerBlockDistance(blocks, []float64{0, 0, 0}, id, id)
	var dimErr *ErrDimensionMismatch
	assert.True(t, errors.As(err, &dimErr))
}

func TestProjector(t *testing.T) {
	basis := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		0, 0,
	})
	p, err := NewProjector(basis, []float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 3, p.InputDim())
	assert.Equal(t, 2, p.OutputDim())

	out, err := p.Project(mat.NewDense(2, 3, []float64{
		2, 3, 100,
		1, 1, 1,
	}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, out.RawRowView(0))
	assert.Equal(t, []float64{0, 0}, out.RawRowView(1))

	_, err = p.Project(mat.NewDense(1, 2, nil))
	var dimErr *ErrDimensionMismatch
	assert.True(t, errors.As(err, &dimErr))

	_, err = NewProjector(basis, []float64{1})
	assert.True(t, errors.As(err, &dimErr))
}
