// Package filters builds the convolution kernels and frequency-domain filters used by the
// quality pipelines: MATLAB-style Gaussian windows, Gaussian derivative kernels, padded
// correlation/convolution and the oriented log-Gabor bank.
package filters

import (
	"fmt"
	"math"
)

// Kernel is a 2D filter kernel in row-major order.
//
// When a kernel is the outer product of a column and a row vector the factors are kept and
// filtering runs as two 1D passes.
type Kernel struct {
	Width  int
	Height int
	Data   []float64

	row []float64
	col []float64
}

// NewKernel wraps a dense kernel.
func NewKernel(width, height int, data []float64) (*Kernel, error) {
	if width <= 0 || height <= 0 || len(data) != width*height {
		return nil, fmt.Errorf("invalid kernel %dx%d with %d values", width, height, len(data))
	}
	return &Kernel{Width: width, Height: height, Data: data}, nil
}

// NewSeparableKernel returns the kernel col ⊗ row.
func NewSeparableKernel(col, row []float64) *Kernel {
	k := &Kernel{
		Width:  len(row),
		Height: len(col),
		Data:   make([]float64, len(row)*len(col)),
		row:    append([]float64(nil), row...),
		col:    append([]float64(nil), col...),
	}
	for y, cv := range col {
		for x, rv := range row {
			k.Data[y*k.Width+x] = cv * rv
		}
	}
	return k
}

// Separable reports whether the kernel carries row/column factors.
func (k *Kernel) Separable() bool {
	return k.row != nil && k.col != nil
}

// At returns the weight at column x, row y.
func (k *Kernel) At(x, y int) float64 {
	return k.Data[y*k.Width+x]
}

// Flipped returns the kernel rotated by 180 degrees.
func (k *Kernel) Flipped() *Kernel {
	if k.Separable() {
		return NewSeparableKernel(reversed(k.col), reversed(k.row))
	}
	f := &Kernel{Width: k.Width, Height: k.Height, Data: reversed(k.Data)}
	return f
}

func reversed(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[len(v)-1-i] = x
	}
	return out
}

// Gaussian returns a size x size Gaussian window normalised to unit sum, matching MATLAB
// fspecial('gaussian'): the grid is centred at (size-1)/2 and values below eps*max are zeroed.
func Gaussian(size int, sigma float64) (*Kernel, error) {
	if size <= 0 {
		return nil, fmt.Errorf("gaussian size must be positive, got %d", size)
	}
	if sigma <= 0 {
		return nil, fmt.Errorf("gaussian sigma must be positive, got %g", sigma)
	}

	m := float64(size-1) / 2
	g := make([]float64, size)
	for i := range g {
		d := float64(i) - m
		g[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}

	h := make([]float64, size*size)
	maxVal := 0.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := g[y] * g[x]
			h[y*size+x] = v
			if v > maxVal {
				maxVal = v
			}
		}
	}

	cut := machineEpsilon * maxVal
	truncated := false
	sum := 0.0
	for i, v := range h {
		if v < cut {
			h[i] = 0
			truncated = true
		}
		sum += h[i]
	}
	for i := range h {
		h[i] /= sum
	}

	if truncated {
		return &Kernel{Width: size, Height: size, Data: h}, nil
	}

	// sum(g ⊗ g) = sum(g)^2, so normalising each factor normalises the product
	s1 := 0.0
	for _, v := range g {
		s1 += v
	}
	for i := range g {
		g[i] /= s1
	}
	k := NewSeparableKernel(g, g)
	k.Data = h
	return k, nil
}

// GaussianDerivative returns the horizontal and vertical first-derivative-of-Gaussian kernels
// with half length ceil(3*sigma). They are not normalised.
func GaussianDerivative(sigma float64) (dx, dy *Kernel, err error) {
	if sigma <= 0 {
		return nil, nil, fmt.Errorf("derivative sigma must be positive, got %g", sigma)
	}
	half := int(math.Ceil(3 * sigma))
	n := 2*half + 1

	gauss := make([]float64, n)
	deriv := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i - half)
		gauss[i] = math.Exp(-t * t / 2 / sigma / sigma)
		deriv[i] = t * gauss[i]
	}

	dx = NewSeparableKernel(gauss, deriv)
	dy = NewSeparableKernel(deriv, gauss)
	return dx, dy, nil
}

// machineEpsilon is the float64 spacing at 1.0
const machineEpsilon = 2.220446049250313e-16
