package nss

import (
	"math"
)

// float32Epsilon guards the one-sided sample counts
const float32Epsilon = 1.1920928955078125e-07

// float64Epsilon keeps one-sided square roots away from zero
const float64Epsilon = 2.220446049250313e-16

// AGGDParams are the parameters of an asymmetric generalized Gaussian fit.
type AGGDParams struct {
	// Alpha is the common shape parameter
	Alpha float64

	// BetaLeft and BetaRight are the scale parameters of each side
	BetaLeft  float64
	BetaRight float64

	// SigmaLeft and SigmaRight are the one-sided standard deviations the betas derive from
	SigmaLeft  float64
	SigmaRight float64
}

// MeanBeta is (βl + βr) / 2.
func (p AGGDParams) MeanBeta() float64 {
	return (p.BetaLeft + p.BetaRight) / 2
}

// Mean is the distribution mean (βr - βl)·Γ(2/α)/Γ(1/α).
func (p AGGDParams) Mean() float64 {
	return (p.BetaRight - p.BetaLeft) * gammaRatio(2, 1, p.Alpha)
}

// FitAGGD estimates AGGD parameters from the negative and positive parts of the sample.
// A sample with zero variance returns ErrZeroVariance.
func FitAGGD(x []float64) (AGGDParams, error) {
	if len(x) == 0 {
		return AGGDParams{}, ErrEmptySample
	}

	var (
		sumLeft, sumRight     float64
		countLeft, countRight float64
		sumAbs, sumSq         float64
	)
	for _, v := range x {
		switch {
		case v < 0:
			sumLeft += v * v
			countLeft++
		case v > 0:
			sumRight += v * v
			countRight++
		}
		sumAbs += math.Abs(v)
		sumSq += v * v
	}
	n := float64(len(x))
	if math.Sqrt(sumSq/n) <= zeroTolerance {
		return AGGDParams{}, ErrZeroVariance
	}

	leftStd := math.Sqrt(sumLeft/(countLeft+float32Epsilon) + float64Epsilon)
	rightStd := math.Sqrt(sumRight/(countRight+float32Epsilon) + float64Epsilon)

	gammaHat := leftStd / rightStd
	meanAbs := sumAbs / n
	rHat := meanAbs * meanAbs / (sumSq / n)
	g2 := gammaHat * gammaHat
	rHatNorm := rHat * (g2*gammaHat + 1) * (gammaHat + 1) / ((g2 + 1) * (g2 + 1))

	grid, _, ratios := tables()
	alpha := grid[nearest(ratios, rHatNorm)]

	scale := math.Sqrt(gammaRatio(1, 3, alpha))
	return AGGDParams{
		Alpha:      alpha,
		BetaLeft:   leftStd * scale,
		BetaRight:  rightStd * scale,
		SigmaLeft:  leftStd,
		SigmaRight: rightStd,
	}, nil
}
