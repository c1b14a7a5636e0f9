// Package resize reproduces MATLAB's imresize with the bicubic kernel, including the
// antialiasing low-pass applied when shrinking. Images are resized along the height axis first
// and the width axis second, each pass being a sparse weighted sum over mirrored indices.
package resize

import (
	"fmt"
	"math"

	"blindiqa/internal/models"
)

// kernelWidth is the support of the bicubic kernel in input pixels.
const kernelWidth = 4.0

// cubic is the Keys kernel with a = -0.5, as used by MATLAB.
func cubic(x float64) float64 {
	ax := math.Abs(x)
	ax2 := ax * ax
	ax3 := ax2 * ax
	switch {
	case ax <= 1:
		return 1.5*ax3 - 2.5*ax2 + 1
	case ax <= 2:
		return -0.5*ax3 + 2.5*ax2 - 4*ax + 2
	}
	return 0
}

// contributions holds, for each output sample, the input indices and their weights.
type contributions struct {
	taps    int
	indices []int
	weights []float64
}

// computeContributions mirrors MATLAB's contributions(): every output coordinate x (1-based)
// maps to u = x/scale + 0.5*(1-1/scale) in input space. When shrinking with antialiasing the
// kernel is stretched by 1/scale.
func computeContributions(inLen, outLen int, scale float64, antialias bool) contributions {
	kernel := cubic
	width := kernelWidth
	if scale < 1 && antialias {
		kernel = func(x float64) float64 { return scale * cubic(scale*x) }
		width = kernelWidth / scale
	}

	taps := int(math.Ceil(width)) + 2
	c := contributions{
		taps:    taps,
		indices: make([]int, outLen*taps),
		weights: make([]float64, outLen*taps),
	}

	for o := 0; o < outLen; o++ {
		u := float64(o+1)/scale + 0.5*(1-1/scale)
		left := int(math.Floor(u - width/2))
		row := c.weights[o*taps : (o+1)*taps]
		sum := 0.0
		for t := 0; t < taps; t++ {
			idx := left + t
			row[t] = kernel(u - float64(idx))
			sum += row[t]
			c.indices[o*taps+t] = mirror(idx-1, inLen)
		}
		if sum != 0 {
			for t := range row {
				row[t] /= sum
			}
		}
	}
	return c
}

// mirror folds a 0-based index into [0, n) using symmetric reflection (edge repeated).
func mirror(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// ByScale resizes p by the same factor along both axes. The output size is ceil(scale*size).
func ByScale(p *models.Plane, scale float64, antialias bool) (*models.Plane, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("invalid resize scale %v", scale)
	}
	outH := int(math.Ceil(float64(p.Height) * scale))
	outW := int(math.Ceil(float64(p.Width) * scale))
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("resize of %dx%d by %v is empty", p.Width, p.Height, scale)
	}
	return resample(p, outW, outH, scale, scale, antialias), nil
}

// ToSize resizes p to width x height. Each axis uses its own scale factor out/in.
func ToSize(p *models.Plane, width, height int, antialias bool) (*models.Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", width, height)
	}
	scaleH := float64(height) / float64(p.Height)
	scaleW := float64(width) / float64(p.Width)
	return resample(p, width, height, scaleW, scaleH, antialias), nil
}

func resample(p *models.Plane, outW, outH int, scaleW, scaleH float64, antialias bool) *models.Plane {
	// height pass
	ch := computeContributions(p.Height, outH, scaleH, antialias)
	tmp := models.NewPlane(p.Width, outH)
	for o := 0; o < outH; o++ {
		dst := tmp.Data[o*p.Width : (o+1)*p.Width]
		for t := 0; t < ch.taps; t++ {
			w := ch.weights[o*ch.taps+t]
			if w == 0 {
				continue
			}
			src := p.Data[ch.indices[o*ch.taps+t]*p.Width:]
			for x := range dst {
				dst[x] += w * src[x]
			}
		}
	}

	// width pass
	cw := computeContributions(p.Width, outW, scaleW, antialias)
	out := models.NewPlane(outW, outH)
	for y := 0; y < outH; y++ {
		src := tmp.Data[y*p.Width : (y+1)*p.Width]
		dst := out.Data[y*outW : (y+1)*outW]
		for o := range dst {
			v := 0.0
			for t := 0; t < cw.taps; t++ {
				v += cw.weights[o*cw.taps+t] * src[cw.indices[o*cw.taps+t]]
			}
			dst[o] = v
		}
	}
	return out
}

// Image applies ToSize to every channel of im.
func Image(im *models.Image, width, height int, antialias bool) (*models.Image, error) {
	channels := make([]*models.Plane, im.NumChannels())
	for i, ch := range im.Channels {
		r, err := ToSize(ch, width, height, antialias)
		if err != nil {
			return nil, err
		}
		channels[i] = r
	}
	return models.NewImage(channels...)
}
