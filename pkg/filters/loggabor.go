package filters

import (
	"fmt"
	"math"

	"blindiqa/internal/models"
)

// LogGabor describes a bank of oriented log-Gabor band-pass filters built in the frequency
// domain, scales x orientations filters in total.
type LogGabor struct {
	// Scales is the number of radial bands
	Scales int

	// Orientations is the number of angular lobes spread over [0, π)
	Orientations int

	// MinWavelength is the wavelength of the finest scale in pixels
	MinWavelength float64

	// Mult is the wavelength ratio between successive scales
	Mult float64

	// SigmaOnf is the ratio of the Gaussian standard deviation to the centre frequency on the
	// log frequency axis, which fixes the radial bandwidth
	SigmaOnf float64

	// DThetaOnSigma is the ratio of angular spacing to the angular Gaussian standard deviation;
	// smaller values give more overlap between adjacent orientation lobes
	DThetaOnSigma float64
}

// Validate checks the bank parameters.
func (lg LogGabor) Validate() error {
	switch {
	case lg.Scales <= 0:
		return fmt.Errorf("log-gabor scales must be positive, got %d", lg.Scales)
	case lg.Orientations <= 0:
		return fmt.Errorf("log-gabor orientations must be positive, got %d", lg.Orientations)
	case lg.MinWavelength <= 0, lg.Mult <= 0:
		return fmt.Errorf("log-gabor wavelength parameters must be positive")
	case lg.SigmaOnf <= 0 || lg.SigmaOnf == 1:
		return fmt.Errorf("log-gabor sigmaOnf must be positive and not 1, got %g", lg.SigmaOnf)
	case lg.DThetaOnSigma <= 0:
		return fmt.Errorf("log-gabor dThetaOnSigma must be positive, got %g", lg.DThetaOnSigma)
	}
	return nil
}

// Index returns the position of filter (scale, orientation) in the slice built by Build.
func (lg LogGabor) Index(scale, orientation int) int {
	return scale*lg.Orientations + orientation
}

// Build generates the filters for a width x height spectrum. Each filter is laid out like the
// output of FFT2 (zero frequency at index 0, not centred) and has its DC term set to zero.
func (lg LogGabor) Build(width, height int) ([][]float64, error) {
	if err := lg.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid filter size %dx%d", width, height)
	}

	n := width * height
	radius := make([]float64, n)
	sinTheta := make([]float64, n)
	cosTheta := make([]float64, n)
	for y := 0; y < height; y++ {
		fy := frequencyCoordinate((y+height/2)%height, height)
		for x := 0; x < width; x++ {
			fx := frequencyCoordinate((x+width/2)%width, width)
			i := y*width + x
			radius[i] = math.Sqrt(fx*fx + fy*fy)
			theta := math.Atan2(-fy, fx)
			sinTheta[i] = math.Sin(theta)
			cosTheta[i] = math.Cos(theta)
		}
	}
	// avoid log(0) at DC, the radial term is zeroed there anyway
	radius[0] = 1

	logSigma := math.Log(lg.SigmaOnf)
	radial := make([][]float64, lg.Scales)
	for s := 0; s < lg.Scales; s++ {
		wavelength := lg.MinWavelength * math.Pow(lg.Mult, float64(s))
		f0 := 1 / wavelength
		band := make([]float64, n)
		for i, r := range radius {
			l := math.Log(r / f0)
			band[i] = math.Exp(-(l * l) / (2 * logSigma * logSigma))
		}
		band[0] = 0
		radial[s] = band
	}

	thetaSigma := math.Pi / (float64(lg.Orientations) * lg.DThetaOnSigma)
	spread := make([][]float64, lg.Orientations)
	for o := 0; o < lg.Orientations; o++ {
		angle := float64(o) * math.Pi / float64(lg.Orientations)
		sa, ca := math.Sin(angle), math.Cos(angle)
		lobe := make([]float64, n)
		for i := range lobe {
			ds := sinTheta[i]*ca - cosTheta[i]*sa
			dc := cosTheta[i]*ca + sinTheta[i]*sa
			dTheta := math.Abs(math.Atan2(ds, dc))
			lobe[i] = math.Exp(-(dTheta * dTheta) / (2 * thetaSigma * thetaSigma))
		}
		spread[o] = lobe
	}

	bank := make([][]float64, lg.Scales*lg.Orientations)
	for s := 0; s < lg.Scales; s++ {
		for o := 0; o < lg.Orientations; o++ {
			f := make([]float64, n)
			for i := range f {
				f[i] = radial[s][i] * spread[o][i]
			}
			bank[lg.Index(s, o)] = f
		}
	}
	return bank, nil
}

// frequencyCoordinate maps index i of an n-point centred grid to a normalised frequency:
// (i - n/2)/n for even n and (i - (n-1)/2)/(n-1) for odd n.
func frequencyCoordinate(i, n int) float64 {
	if n%2 == 0 {
		return float64(i-n/2) / float64(n)
	}
	if n == 1 {
		return 0
	}
	return float64(i-(n-1)/2) / float64(n-1)
}

// Response filters a spectrum and returns the real and imaginary parts of the spatial
// response ifft2(filter · spectrum).
func Response(spectrum *Spectrum, filter []float64) (re, im *models.Plane, err error) {
	if len(filter) != len(spectrum.Data) {
		return nil, nil, fmt.Errorf("filter has %d values, spectrum has %d", len(filter), len(spectrum.Data))
	}
	product := &Spectrum{Width: spectrum.Width, Height: spectrum.Height, Data: make([]complex128, len(filter))}
	for i, f := range filter {
		product.Data[i] = complex(f, 0) * spectrum.Data[i]
	}
	resp := IFFT2(product)
	return resp.Real(), resp.Imag(), nil
}
