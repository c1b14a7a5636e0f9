package mvg

import (
	"gonum.org/v1/gonum/mat"
)

// Projector maps raw block features onto a frozen principal component basis.
type Projector struct {
	// Basis is D x K, one principal direction per column
	Basis *mat.Dense

	// Mean is the D-dimensional reference mean subtracted before projection
	Mean []float64
}

// NewProjector checks that basis and mean agree on D.
func NewProjector(basis *mat.Dense, mean []float64) (*Projector, error) {
	d, _ := basis.Dims()
	if len(mean) != d {
		return nil, &ErrDimensionMismatch{What: "pca mean", Expected: d, Actual: len(mean)}
	}
	return &Projector{Basis: basis, Mean: mean}, nil
}

// InputDim is D.
func (p *Projector) InputDim() int {
	d, _ := p.Basis.Dims()
	return d
}

// OutputDim is K.
func (p *Projector) OutputDim() int {
	_, k := p.Basis.Dims()
	return k
}

// Project returns (features - mean) · Basis, i.e. basisᵀ(x - mean) for every row x.
// Non-finite inputs propagate into the affected rows.
func (p *Projector) Project(features mat.Matrix) (*mat.Dense, error) {
	n, d := features.Dims()
	if d != p.InputDim() {
		return nil, &ErrDimensionMismatch{What: "pca input", Expected: p.InputDim(), Actual: d}
	}
	centered := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			centered.Set(i, j, features.At(i, j)-p.Mean[j])
		}
	}
	out := mat.NewDense(n, p.OutputDim(), nil)
	out.Mul(centered, p.Basis)
	return out, nil
}
