package nss

import "errors"

var (
	// ErrZeroVariance is returned when a block has no spread to fit a shape to.
	ErrZeroVariance = errors.New("nss: block has zero variance")

	// ErrNonPositiveSample is returned when Weibull input contains values <= 0 or non-finite
	// values, for which log(x) is undefined.
	ErrNonPositiveSample = errors.New("nss: weibull samples must be finite and strictly positive")

	// ErrEmptySample is returned for empty input.
	ErrEmptySample = errors.New("nss: empty sample")
)

// zeroTolerance matches torch.isclose(σ, 0) (atol 1e-8)
const zeroTolerance = 1e-8
