package filters

import (
	"blindiqa/internal/models"
)

// Correlate filters p with k (MATLAB imfilter semantics, no kernel flip) and returns a plane
// of the same size.
func Correlate(p *models.Plane, k *Kernel, mode PadMode) *models.Plane {
	if k.Separable() {
		return correlateSeparable(p, k, mode)
	}
	return correlateDense(p, k, mode)
}

// Convolve filters p with k using MATLAB conv2 semantics: the kernel is flipped first.
func Convolve(p *models.Plane, k *Kernel, mode PadMode) *models.Plane {
	return Correlate(p, k.Flipped(), mode)
}

func correlateDense(p *models.Plane, k *Kernel, mode PadMode) *models.Plane {
	w, h := p.Width, p.Height
	xs := offsetTable(w, k.Width, mode)
	ys := offsetTable(h, k.Height, mode)
	out := models.NewPlane(w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for ky := 0; ky < k.Height; ky++ {
				sy := ys[y*k.Height+ky]
				if sy < 0 {
					continue
				}
				row := p.Data[sy*w:]
				krow := k.Data[ky*k.Width:]
				for kx := 0; kx < k.Width; kx++ {
					sx := xs[x*k.Width+kx]
					if sx < 0 {
						continue
					}
					sum += krow[kx] * row[sx]
				}
			}
			out.Data[y*w+x] = sum
		}
	}
	return out
}

// correlateSeparable runs a horizontal pass with the row factor and a vertical pass with the
// column factor. Padding maps each axis independently, so the result equals the dense
// correlation up to rounding.
func correlateSeparable(p *models.Plane, k *Kernel, mode PadMode) *models.Plane {
	w, h := p.Width, p.Height
	kw, kh := len(k.row), len(k.col)
	xs := offsetTable(w, kw, mode)
	ys := offsetTable(h, kh, mode)

	tmp := models.NewPlane(w, h)
	for y := 0; y < h; y++ {
		row := p.Data[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			sum := 0.0
			taps := xs[x*kw : (x+1)*kw]
			for t, sx := range taps {
				if sx >= 0 {
					sum += k.row[t] * row[sx]
				}
			}
			tmp.Data[y*w+x] = sum
		}
	}

	out := models.NewPlane(w, h)
	for y := 0; y < h; y++ {
		taps := ys[y*kh : (y+1)*kh]
		dst := out.Data[y*w : (y+1)*w]
		for t, sy := range taps {
			if sy < 0 {
				continue
			}
			c := k.col[t]
			src := tmp.Data[sy*w : (sy+1)*w]
			for x := range dst {
				dst[x] += c * src[x]
			}
		}
	}
	return out
}
