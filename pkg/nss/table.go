// Package nss fits the parametric natural-scene-statistics models used as quality features:
// the generalized Gaussian (GGD), its asymmetric variant (AGGD) and the two-parameter Weibull
// distribution.
//
// GGD and AGGD shapes are found by nearest-neighbour lookup in a dense table of the
// moment ratio over γ ∈ [0.2, 10] with step 0.001. The table is built once and shared.
package nss

import (
	"math"
	"sync"
)

const (
	gammaMin  = 0.2
	gammaMax  = 10.0
	gammaStep = 0.001
)

var (
	tablesOnce sync.Once

	// gammaGrid holds the candidate shape values
	gammaGrid []float64

	// ggdRatio is Γ(1/γ)Γ(3/γ)/Γ(2/γ)² per grid point
	ggdRatio []float64

	// aggdRatio is Γ(2/γ)²/(Γ(1/γ)Γ(3/γ)) per grid point
	aggdRatio []float64
)

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

func buildTables() {
	n := int(math.Round((gammaMax-gammaMin)/gammaStep)) + 1
	gammaGrid = make([]float64, n)
	ggdRatio = make([]float64, n)
	aggdRatio = make([]float64, n)
	for i := 0; i < n; i++ {
		g := gammaMin + float64(i)*gammaStep
		gammaGrid[i] = g
		l := lgamma(1/g) + lgamma(3/g) - 2*lgamma(2/g)
		ggdRatio[i] = math.Exp(l)
		aggdRatio[i] = math.Exp(-l)
	}
}

func tables() (grid, ggd, aggd []float64) {
	tablesOnce.Do(buildTables)
	return gammaGrid, ggdRatio, aggdRatio
}

// nearest returns the index of the table entry closest to v. Ties resolve to the lowest index.
// A NaN target matches nothing and yields index 0.
func nearest(table []float64, v float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, r := range table {
		d := math.Abs(v - r)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// gammaRatio returns Γ(a/α)/Γ(b/α) evaluated through log-gamma.
func gammaRatio(a, b, alpha float64) float64 {
	return math.Exp(lgamma(a/alpha) - lgamma(b/alpha))
}
