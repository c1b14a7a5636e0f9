// Package features turns images into per-block natural scene statistics: the 18 NIQE
// features of a normalised luminance block, the 234 IL-NIQE features of a 109-channel
// composite block, and the two-scale orchestration that produces one feature row per block.
package features

import (
	"errors"
	"fmt"
	"strings"

	"blindiqa/pkg/nss"
)

// ErrImageTooSmall is returned when not a single block fits in the image.
var ErrImageTooSmall = errors.New("features: image smaller than one block")

// DegeneratePolicy decides what happens when a distribution fit has no valid input, e.g. a
// perfectly flat block.
type DegeneratePolicy int

const (
	// FailOnDegenerate aborts extraction with a *BlockError.
	FailOnDegenerate DegeneratePolicy = iota

	// SkipDegenerate writes NaN for the features of the failed fit and carries on. NaN rows
	// are handled downstream by the missing-data policies of the scorers.
	SkipDegenerate
)

func (p DegeneratePolicy) String() string {
	switch p {
	case FailOnDegenerate:
		return "fail"
	case SkipDegenerate:
		return "skip"
	}
	return fmt.Sprintf("DegeneratePolicy(%d)", int(p))
}

// ParseDegeneratePolicy accepts "fail" and "skip".
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail", "":
		return FailOnDegenerate, nil
	case "skip":
		return SkipDegenerate, nil
	}
	return FailOnDegenerate, fmt.Errorf("unknown degenerate block policy %q", s)
}

// ScaleConcat selects how the two scales of IL-NIQE are combined.
type ScaleConcat int

const (
	// ConcatFeatures appends the scale-2 features to each block row (n x 2D).
	ConcatFeatures ScaleConcat = iota

	// ConcatBlocks stacks the scale-2 rows below the scale-1 rows (2n x D).
	ConcatBlocks
)

func (c ScaleConcat) String() string {
	switch c {
	case ConcatFeatures:
		return "features"
	case ConcatBlocks:
		return "blocks"
	}
	return fmt.Sprintf("ScaleConcat(%d)", int(c))
}

// ParseScaleConcat accepts "features" and "blocks".
func ParseScaleConcat(s string) (ScaleConcat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "features", "":
		return ConcatFeatures, nil
	case "blocks":
		return ConcatBlocks, nil
	}
	return ConcatFeatures, fmt.Errorf("unknown scale concatenation %q", s)
}

// BlockError locates a feature extraction failure.
type BlockError struct {
	Scale int
	Block int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("scale %d block %d: %v", e.Scale, e.Block, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// degenerate reports whether err is a fitter precondition failure.
func degenerate(err error) bool {
	return errors.Is(err, nss.ErrZeroVariance) ||
		errors.Is(err, nss.ErrNonPositiveSample) ||
		errors.Is(err, nss.ErrEmptySample)
}

// featureWriter appends fitted values to a feature row, substituting NaN for degenerate fits
// under SkipDegenerate.
type featureWriter struct {
	row    []float64
	policy DegeneratePolicy
}

func newFeatureWriter(capacity int, policy DegeneratePolicy) *featureWriter {
	return &featureWriter{row: make([]float64, 0, capacity), policy: policy}
}

// add appends values, or n NaNs when err is a tolerated degenerate fit.
func (w *featureWriter) add(err error, n int, values ...float64) error {
	if err != nil {
		if w.policy != SkipDegenerate || !degenerate(err) {
			return err
		}
		for i := 0; i < n; i++ {
			w.row = append(w.row, nan)
		}
		return nil
	}
	w.row = append(w.row, values...)
	return nil
}
