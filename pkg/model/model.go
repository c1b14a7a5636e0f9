// Package model holds the frozen pristine multivariate Gaussian a quality score is measured
// against, and its on-disk YAML form.
package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidModel is wrapped by every validation failure.
var ErrInvalidModel = errors.New("invalid pristine model")

// Metric names the pipeline a model was trained for.
type Metric string

const (
	MetricNIQE   Metric = "niqe"
	MetricILNIQE Metric = "ilniqe"
)

// ParseMetric accepts "niqe" and "ilniqe".
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricNIQE, MetricILNIQE:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Model is the pristine natural-scene model. It is read-only once loaded and may be shared by
// concurrent scorers.
type Model struct {
	Metric Metric

	// Mean is the K-dimensional pristine mean
	Mean []float64

	// Covariance is the K x K pristine covariance
	Covariance *mat.SymDense

	// PCABasis (D x K) and PCAMean (D) project raw IL-NIQE features; nil for NIQE
	PCABasis *mat.Dense
	PCAMean  []float64
}

// Dim is K, the dimension the distance is computed in.
func (m *Model) Dim() int {
	return len(m.Mean)
}

// FeatureDim is D, the number of raw block features the model expects. Without a PCA
// basis it equals Dim.
func (m *Model) FeatureDim() int {
	if m.PCABasis == nil {
		return m.Dim()
	}
	d, _ := m.PCABasis.Dims()
	return d
}

// Validate checks shapes and finiteness.
func (m *Model) Validate() error {
	if _, err := ParseMetric(string(m.Metric)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	k := len(m.Mean)
	if k == 0 {
		return fmt.Errorf("%w: empty mean", ErrInvalidModel)
	}
	if !finite(m.Mean) {
		return fmt.Errorf("%w: mean has non-finite values", ErrInvalidModel)
	}
	if m.Covariance == nil || m.Covariance.SymmetricDim() != k {
		return fmt.Errorf("%w: covariance must be %dx%d", ErrInvalidModel, k, k)
	}
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			if v := m.Covariance.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: covariance has non-finite values", ErrInvalidModel)
			}
		}
	}

	switch m.Metric {
	case MetricNIQE:
		if m.PCABasis != nil || m.PCAMean != nil {
			return fmt.Errorf("%w: niqe models carry no projection", ErrInvalidModel)
		}
	case MetricILNIQE:
		if m.PCABasis == nil {
			return fmt.Errorf("%w: ilniqe model needs a pca basis", ErrInvalidModel)
		}
		d, c := m.PCABasis.Dims()
		if c != k {
			return fmt.Errorf("%w: pca basis has %d components, mean has %d", ErrInvalidModel, c, k)
		}
		if len(m.PCAMean) != d {
			return fmt.Errorf("%w: pca mean has %d values, basis has %d rows", ErrInvalidModel, len(m.PCAMean), d)
		}
		if !finite(m.PCAMean) || !finite(m.PCABasis.RawMatrix().Data) {
			return fmt.Errorf("%w: projection has non-finite values", ErrInvalidModel)
		}
	}
	return nil
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
