package mvg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// AveragedPinv returns pinv((a + b) / 2), the metric shared by both distances.
func AveragedPinv(a, b mat.Symmetric) (*mat.Dense, error) {
	if a.SymmetricDim() != b.SymmetricDim() {
		return nil, &ErrDimensionMismatch{What: "covariance", Expected: b.SymmetricDim(), Actual: a.SymmetricDim()}
	}
	avg := mat.NewSymDense(a.SymmetricDim(), nil)
	avg.AddSym(a, b)
	avg.ScaleSym(0.5, avg)
	return Pinv(avg)
}

// quadratic returns sqrt(dᵀ P d), clamping round-off below zero.
func quadratic(d []float64, p mat.Matrix) float64 {
	v := mat.NewVecDense(len(d), d)
	q := mat.Inner(v, p, v)
	return math.Sqrt(math.Max(q, 0))
}

// PooledDistance is the NIQE distance between two multivariate Gaussians:
//
//	sqrt((μt - μp)ᵀ · pinv((Σt + Σp)/2) · (μt - μp))
func PooledDistance(muTest, muPristine []float64, covTest, covPristine mat.Symmetric) (float64, error) {
	dim := len(muPristine)
	if err := checkDims(dim, len(muTest), covTest, covPristine); err != nil {
		return 0, err
	}
	metric, err := AveragedPinv(covTest, covPristine)
	if err != nil {
		return 0, err
	}
	diff := make([]float64, dim)
	for i := range diff {
		diff[i] = muPristine[i] - muTest[i]
	}
	return quadratic(diff, metric), nil
}

// PerBlockDistance is the IL-NIQE distance: every block feature row is compared to the
// pristine mean under the averaged covariance metric and the per-block distances are
// averaged. Unlike PooledDistance the test mean is never formed.
func PerBlockDistance(blocks mat.Matrix, muPristine []float64, covTest, covPristine mat.Symmetric) (float64, error) {
	r, c := blocks.Dims()
	if err := checkDims(len(muPristine), c, covTest, covPristine); err != nil {
		return 0, err
	}
	if r == 0 {
		return 0, ErrNoFiniteData
	}
	metric, err := AveragedPinv(covTest, covPristine)
	if err != nil {
		return 0, err
	}

	diff := make([]float64, c)
	total := 0.0
	for i := 0; i < r; i++ {
		for j := range diff {
			diff[j] = blocks.At(i, j) - muPristine[j]
		}
		total += quadratic(diff, metric)
	}
	return total / float64(r), nil
}

func checkDims(dim, features int, covTest, covPristine mat.Symmetric) error {
	if features != dim {
		return &ErrDimensionMismatch{What: "feature", Expected: dim, Actual: features}
	}
	if covPristine.SymmetricDim() != dim {
		return &ErrDimensionMismatch{What: "pristine covariance", Expected: dim, Actual: covPristine.SymmetricDim()}
	}
	if covTest.SymmetricDim() != dim {
		return &ErrDimensionMismatch{What: "test covariance", Expected: dim, Actual: covTest.SymmetricDim()}
	}
	return nil
}
