// Package mvg holds the multivariate Gaussian statistics behind the quality score:
// NaN-robust mean and covariance over block features, the pseudo-inverse, PCA projection and
// the Mahalanobis-style distances.
//
// Two missing-data policies coexist and are kept as separate operations:
//   - covariance input either zero-fills (NanToNum) or drops incomplete rows
//     (DropNonFiniteRows);
//   - the mean ignores non-finite entries (NanMean) and FillNonFinite imputes them with it.
package mvg

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NanMean returns the column means of m computed over finite entries only: non-finite
// values are excluded from both the sum and the count. A column without any finite entry
// yields ErrNoFiniteData.
func NanMean(m mat.Matrix) ([]float64, error) {
	r, c := m.Dims()
	sums := make([]float64, c)
	counts := make([]int, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if isFinite(v) {
				sums[j] += v
				counts[j]++
			}
		}
	}
	for j := range sums {
		if counts[j] == 0 {
			return nil, ErrNoFiniteData
		}
		sums[j] /= float64(counts[j])
	}
	return sums, nil
}

// NanToNum returns a copy of m with NaN replaced by 0 and ±Inf by ±MaxFloat64.
func NanToNum(m mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(m)
	r, c := out.Dims()
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		for j := 0; j < c; j++ {
			switch v := row[j]; {
			case math.IsNaN(v):
				row[j] = 0
			case math.IsInf(v, 1):
				row[j] = math.MaxFloat64
			case math.IsInf(v, -1):
				row[j] = -math.MaxFloat64
			}
		}
	}
	return out
}

// NonFiniteRows returns the indices of rows holding at least one non-finite value.
func NonFiniteRows(m mat.Matrix) *roaring.Bitmap {
	rows := roaring.New()
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !isFinite(m.At(i, j)) {
				rows.Add(uint32(i))
				break
			}
		}
	}
	return rows
}

// DropNonFiniteRows removes every row that contains a non-finite value and returns the kept
// rows together with the dropped row indices. If no row survives the result is nil.
func DropNonFiniteRows(m mat.Matrix) (*mat.Dense, *roaring.Bitmap) {
	dropped := NonFiniteRows(m)
	r, c := m.Dims()
	kept := r - int(dropped.GetCardinality())
	if kept == 0 {
		return nil, dropped
	}

	out := mat.NewDense(kept, c, nil)
	k := 0
	for i := 0; i < r; i++ {
		if dropped.Contains(uint32(i)) {
			continue
		}
		for j := 0; j < c; j++ {
			out.Set(k, j, m.At(i, j))
		}
		k++
	}
	return out, dropped
}

// FillNonFinite returns a copy of m whose non-finite entries are replaced by the matching
// entry of mean.
func FillNonFinite(m mat.Matrix, mean []float64) (*mat.Dense, error) {
	r, c := m.Dims()
	if len(mean) != c {
		return nil, &ErrDimensionMismatch{What: "fill mean", Expected: c, Actual: len(mean)}
	}
	out := mat.DenseCopyOf(m)
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		for j, v := range row {
			if !isFinite(v) {
				row[j] = mean[j]
			}
		}
	}
	return out, nil
}

// Covariance estimates the covariance of the columns of m, rows being observations.
// The estimate is normalised by n-1, or by n when bias is true.
func Covariance(m mat.Matrix, bias bool) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r < 2 {
		return nil, ErrInsufficientBlocks
	}
	cov := mat.NewSymDense(c, nil)
	stat.CovarianceMatrix(cov, m, nil)
	if bias {
		cov.ScaleSym(float64(r-1)/float64(r), cov)
	}
	return cov, nil
}
