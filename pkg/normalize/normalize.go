// Package normalize implements the Gaussian-weighted local contrast normalisation (mean
// subtracted, contrast normalised coefficients) that both quality pipelines start from.
package normalize

import (
	"fmt"
	"math"

	"blindiqa/internal/models"
	"blindiqa/pkg/filters"
)

// Options controls the local normalisation window.
type Options struct {
	// KernelSize is the side of the square Gaussian window
	KernelSize int

	// Sigma is the standard deviation of the window
	Sigma float64

	// C stabilises the division in flat regions
	C float64

	// Padding selects the boundary convention of both Gaussian filters
	Padding filters.PadMode
}

// NIQEOptions is the 7x7, σ=7/6 replicate-padded window used by NIQE.
func NIQEOptions() Options {
	return Options{KernelSize: 7, Sigma: 7.0 / 6, C: 1, Padding: filters.PadReplicate}
}

// ILNIQEOptions is the 5x5, σ=5/6 window used for the IL-NIQE structure channel.
func ILNIQEOptions() Options {
	return Options{KernelSize: 5, Sigma: 5.0 / 6, C: 1, Padding: filters.PadReplicate}
}

// epsilon keeps the square root argument strictly positive
const epsilon = 2.220446049250313e-16

// Normalize returns (x - μ) / (σ + C) where μ and σ are the Gaussian-weighted local mean and
// standard deviation. The input plane is not modified.
func Normalize(p *models.Plane, opts Options) (*models.Plane, error) {
	window, err := filters.Gaussian(opts.KernelSize, opts.Sigma)
	if err != nil {
		return nil, fmt.Errorf("normalization window: %w", err)
	}
	if opts.C < 0 {
		return nil, fmt.Errorf("normalization constant must be non-negative, got %g", opts.C)
	}

	mu := filters.Correlate(p, window, opts.Padding)
	sq := p.Map(func(v float64) float64 { return v * v })
	muSq := filters.Correlate(sq, window, opts.Padding)

	out := models.NewPlane(p.Width, p.Height)
	for i, v := range p.Data {
		m := mu.Data[i]
		variance := muSq.Data[i] - m*m
		sigma := math.Sqrt(math.Max(variance, 0) + epsilon)
		out.Data[i] = (v - m) / (sigma + opts.C)
	}
	return out, nil
}
