package nss

import (
	"math"
)

// GGDParams are the parameters of a zero-mean generalized Gaussian fit.
type GGDParams struct {
	// Shape is γ, 2 for a Gaussian and 1 for a Laplacian
	Shape float64

	// Sigma is the root mean square of the sample
	Sigma float64
}

// FitGGD estimates GGD parameters by moment matching: ρ = E[x²]/E[|x|]² is looked up in the
// Γ(1/γ)Γ(3/γ)/Γ(2/γ)² table. A sample with zero variance returns ErrZeroVariance.
func FitGGD(x []float64) (GGDParams, error) {
	if len(x) == 0 {
		return GGDParams{}, ErrEmptySample
	}
	sumSq, sumAbs := 0.0, 0.0
	for _, v := range x {
		sumSq += v * v
		sumAbs += math.Abs(v)
	}
	n := float64(len(x))
	sigmaSq := sumSq / n
	sigma := math.Sqrt(sigmaSq)
	if sigma <= zeroTolerance {
		return GGDParams{}, ErrZeroVariance
	}

	e := sumAbs / n
	rho := sigmaSq / (e * e)

	grid, ratios, _ := tables()
	return GGDParams{Shape: grid[nearest(ratios, rho)], Sigma: sigma}, nil
}
