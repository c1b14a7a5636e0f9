package filters

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"blindiqa/internal/models"
)

// Spectrum is a 2D complex array in row-major order, the output of FFT2.
type Spectrum struct {
	Width  int
	Height int
	Data   []complex128
}

// FFT2 performs a 2D Fast Fourier Transform of the plane.
// Rows are transformed first, then columns; any size is supported.
func FFT2(p *models.Plane) *Spectrum {
	s := &Spectrum{Width: p.Width, Height: p.Height, Data: make([]complex128, len(p.Data))}
	for i, v := range p.Data {
		s.Data[i] = complex(v, 0)
	}
	transform2D(s, false)
	return s
}

// IFFT2 computes the normalised inverse 2D transform.
func IFFT2(s *Spectrum) *Spectrum {
	out := &Spectrum{Width: s.Width, Height: s.Height, Data: make([]complex128, len(s.Data))}
	copy(out.Data, s.Data)
	transform2D(out, true)

	scale := complex(1/float64(s.Width*s.Height), 0)
	for i := range out.Data {
		out.Data[i] *= scale
	}
	return out
}

// Real returns the real part as a plane.
func (s *Spectrum) Real() *models.Plane {
	p := models.NewPlane(s.Width, s.Height)
	for i, c := range s.Data {
		p.Data[i] = real(c)
	}
	return p
}

// Imag returns the imaginary part as a plane.
func (s *Spectrum) Imag() *models.Plane {
	p := models.NewPlane(s.Width, s.Height)
	for i, c := range s.Data {
		p.Data[i] = imag(c)
	}
	return p
}

// transform2D applies the unnormalised forward or inverse transform in place.
func transform2D(s *Spectrum, inverse bool) {
	w, h := s.Width, s.Height

	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		seg := s.Data[y*w : (y+1)*w]
		if inverse {
			rowFFT.Sequence(row, seg)
		} else {
			rowFFT.Coefficients(row, seg)
		}
		copy(seg, row)
	}

	colFFT := fourier.NewCmplxFFT(h)
	colIn := make([]complex128, h)
	colOut := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colIn[y] = s.Data[y*w+x]
		}
		if inverse {
			colFFT.Sequence(colOut, colIn)
		} else {
			colFFT.Coefficients(colOut, colIn)
		}
		for y := 0; y < h; y++ {
			s.Data[y*w+x] = colOut[y]
		}
	}
}
