package nss

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// WeibullOptions bounds the Newton-Raphson shape iteration.
type WeibullOptions struct {
	// MaxIter caps the number of Newton steps
	MaxIter int

	// Tol stops the iteration once the largest per-row change of k drops below it
	Tol float64
}

// DefaultWeibullOptions returns 50 iterations and a tolerance of 1e-2.
func DefaultWeibullOptions() WeibullOptions {
	return WeibullOptions{MaxIter: 50, Tol: 1e-2}
}

// WeibullParams are the maximum-likelihood parameters of a two-parameter Weibull fit.
type WeibullParams struct {
	// Shape is k
	Shape float64

	// Scale is λ
	Scale float64
}

// WeibullFit is the batched result of FitWeibull.
type WeibullFit struct {
	Params []WeibullParams

	// Iterations is the number of Newton steps taken
	Iterations int

	// Converged is false when MaxIter was reached before the tolerance; the parameters are
	// then only approximate
	Converged bool
}

// FitWeibull fits every row independently by Newton-Raphson on the derivative of the
// log-likelihood with respect to k, starting from k = 1.2/std(log x). Rows are iterated
// together and stop when the largest change over all rows falls below opts.Tol.
// λ follows in closed form: λ = mean(x^k)^(1/k).
//
// Every sample must be finite and strictly positive, otherwise ErrNonPositiveSample is
// returned before any iteration.
func FitWeibull(rows [][]float64, opts WeibullOptions) (WeibullFit, error) {
	if len(rows) == 0 {
		return WeibullFit{}, ErrEmptySample
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultWeibullOptions().MaxIter
	}
	if opts.Tol <= 0 {
		opts.Tol = DefaultWeibullOptions().Tol
	}

	logs := make([][]float64, len(rows))
	meanLog := make([]float64, len(rows))
	k := make([]float64, len(rows))
	for r, row := range rows {
		if len(row) < 2 {
			return WeibullFit{}, ErrEmptySample
		}
		lx := make([]float64, len(row))
		for i, v := range row {
			if !(v > 0) || math.IsInf(v, 1) {
				return WeibullFit{}, ErrNonPositiveSample
			}
			lx[i] = math.Log(v)
		}
		logs[r] = lx
		mean, std := stat.MeanStdDev(lx, nil)
		meanLog[r] = mean
		k[r] = 1.2 / std
	}

	fit := WeibullFit{Params: make([]WeibullParams, len(rows))}
	for fit.Iterations < opts.MaxIter {
		fit.Iterations++
		maxChange := 0.0
		for r, row := range rows {
			var ff, fg, ffPrime float64
			for i, v := range row {
				xk := math.Pow(v, k[r])
				lx := logs[r][i]
				ff += xk * lx
				fg += xk
				ffPrime += xk * lx * lx
			}
			kr := k[r]
			f := ff/fg - meanLog[r] - 1/kr
			fPrime := ffPrime/fg - (ff/fg)*(ff/fg) + 1/(kr*kr)
			next := kr - f/fPrime
			if change := math.Abs(next - kr); change > maxChange || math.IsNaN(change) {
				maxChange = change
			}
			k[r] = next
		}
		if maxChange < opts.Tol {
			fit.Converged = true
			break
		}
	}

	for r, row := range rows {
		sum := 0.0
		for _, v := range row {
			sum += math.Pow(v, k[r])
		}
		fit.Params[r] = WeibullParams{
			Shape: k[r],
			Scale: math.Pow(sum/float64(len(row)), 1/k[r]),
		}
	}
	return fit, nil
}
