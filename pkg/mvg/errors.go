package mvg

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFiniteData is returned when a feature column has no finite entry to average.
	ErrNoFiniteData = errors.New("mvg: no finite values to average")

	// ErrInsufficientBlocks is returned when fewer than two observations remain for a
	// covariance estimate.
	ErrInsufficientBlocks = errors.New("mvg: at least two blocks are needed for a covariance")

	// ErrSVDFailed is returned when the pseudo-inverse factorization does not converge.
	ErrSVDFailed = errors.New("mvg: singular value decomposition failed")
)

// ErrDimensionMismatch reports operands whose sizes disagree.
type ErrDimensionMismatch struct {
	// What names the operand that did not match
	What     string
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("mvg: %s dimension mismatch: expected %d, got %d", e.What, e.Expected, e.Actual)
}
