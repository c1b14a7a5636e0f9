package mvg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const float64Epsilon = 2.220446049250313e-16

// Pinv computes the Moore-Penrose pseudo-inverse of a through its singular value
// decomposition. Singular values at or below eps·max(r, c)·σmax are treated as zero, so
// near-singular covariance matrices are inverted on their well-conditioned subspace only.
func Pinv(a mat.Matrix) (*mat.Dense, error) {
	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrSVDFailed
	}
	values := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	sigmaMax := 0.0
	for _, s := range values {
		sigmaMax = math.Max(sigmaMax, s)
	}
	cutoff := float64Epsilon * float64(max(r, c)) * sigmaMax

	// V · diag(1/σ) restricted to the retained singular values
	vs := mat.NewDense(c, len(values), nil)
	for j, s := range values {
		if s <= cutoff {
			continue
		}
		for i := 0; i < c; i++ {
			vs.Set(i, j, v.At(i, j)/s)
		}
	}

	out := mat.NewDense(c, r, nil)
	out.Mul(vs, u.T())
	return out, nil
}
