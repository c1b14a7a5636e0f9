package features

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"blindiqa/internal/models"
	"blindiqa/pkg/filters"
	"blindiqa/pkg/normalize"
	"blindiqa/pkg/nss"
	"blindiqa/pkg/resize"
)

const (
	// ILNIQEChannels is the depth of the composite map built at each scale.
	ILNIQEChannels = 109

	// ILNIQEFeatureCount is the number of features per block and scale.
	ILNIQEFeatureCount = 234

	// FeatureClamp caps raw IL-NIQE features before projection.
	FeatureClamp = 10000.0
)

// composite channel layout
const (
	chStruct    = 0
	chGM        = 1  // 1..3
	chIntensity = 4  // 4..6 with BY and RG
	chDeriv     = 7  // 7..12
	chLogGabor  = 13 // 13..36
	chPartial   = 37 // 37..84
	chGaborGM   = 85 // 85..108
)

const (
	sigmaGaussDerivative  = 1.66
	scaleFactorGaussDeriv = 0.28
	minWavelength         = 2.4
	scaleFactorLogGabor   = 0.87
	sigmaDownsample       = 0.9
	gradientEpsilon       = 1e-8
	logOffset             = 1e-5
)

// opponentWeights maps RGB to the three opponent channels O1, O2, O3.
var opponentWeights = [3][3]float64{
	{0.30, 0.04, -0.35},
	{0.34, -0.60, 0.17},
	{0.06, 0.63, 0.27},
}

// Opponent converts a 3-channel RGB image into the opponent colour space.
func Opponent(rgb *models.Image) (*models.Image, error) {
	if rgb.NumChannels() != 3 {
		return nil, fmt.Errorf("opponent transform needs 3 channels, got %d", rgb.NumChannels())
	}
	out := make([]*models.Plane, 3)
	for c := range out {
		p := models.NewPlane(rgb.Width(), rgb.Height())
		w := opponentWeights[c]
		r, g, b := rgb.Channels[0].Data, rgb.Channels[1].Data, rgb.Channels[2].Data
		for i := range p.Data {
			p.Data[i] = w[0]*r[i] + w[1]*g[i] + w[2]*b[i]
		}
		out[c] = p
	}
	return models.NewImage(out...)
}

// LogGaborBank returns the filter bank parameters used at the given scale.
func LogGaborBank(scale int) filters.LogGabor {
	return filters.LogGabor{
		Scales:        3,
		Orientations:  4,
		MinWavelength: minWavelength / math.Pow(float64(scale), scaleFactorLogGabor),
		Mult:          1.31,
		SigmaOnf:      0.55,
		DThetaOnSigma: 1.10,
	}
}

func gradientMagnitude(dx, dy *models.Plane) *models.Plane {
	out := models.NewPlane(dx.Width, dx.Height)
	for i := range out.Data {
		out.Data[i] = math.Sqrt(dx.Data[i]*dx.Data[i] + dy.Data[i]*dy.Data[i] + gradientEpsilon)
	}
	return out
}

// Composite builds the 109-channel map of one scale from the RGB image and its opponent
// transform, both at that scale:
//
//	0        normalised O3
//	1-3      gradient magnitude of O1..O3
//	4-6      log intensity, blue-yellow, red-green
//	7-12     x and y derivatives of O1..O3, interleaved
//	13-36    real and imaginary log-Gabor responses of O3, per filter
//	37-84    x/y derivatives of the real then imaginary response, per filter
//	85-108   gradient magnitude of the real and imaginary response, per filter
func Composite(rgb, opp *models.Image, scale int) ([]*models.Plane, error) {
	if rgb.NumChannels() != 3 || opp.NumChannels() != 3 {
		return nil, fmt.Errorf("composite needs 3-channel RGB and opponent images")
	}
	channels := make([]*models.Plane, ILNIQEChannels)

	structDis, err := normalize.Normalize(opp.Channels[2], normalize.ILNIQEOptions())
	if err != nil {
		return nil, err
	}
	channels[chStruct] = structDis

	dx, dy, err := filters.GaussianDerivative(sigmaGaussDerivative / math.Pow(float64(scale), scaleFactorGaussDeriv))
	if err != nil {
		return nil, err
	}
	for c, o := range opp.Channels {
		ix := filters.Convolve(o, dx, filters.PadZero)
		iy := filters.Convolve(o, dy, filters.PadZero)
		channels[chGM+c] = gradientMagnitude(ix, iy)
		channels[chDeriv+2*c] = ix
		channels[chDeriv+2*c+1] = iy
	}

	intensity, by, rg := logOpponent(rgb)
	channels[chIntensity] = intensity
	channels[chIntensity+1] = by
	channels[chIntensity+2] = rg

	bank := LogGaborBank(scale)
	o3 := opp.Channels[2]
	bankFilters, err := bank.Build(o3.Width, o3.Height)
	if err != nil {
		return nil, err
	}
	spectrum := filters.FFT2(o3)
	for s := 0; s < bank.Scales; s++ {
		for o := 0; o < bank.Orientations; o++ {
			idx := bank.Index(s, o)
			re, im, err := filters.Response(spectrum, bankFilters[idx])
			if err != nil {
				return nil, err
			}
			pxr := filters.Convolve(re, dx, filters.PadZero)
			pyr := filters.Convolve(re, dy, filters.PadZero)
			pxi := filters.Convolve(im, dx, filters.PadZero)
			pyi := filters.Convolve(im, dy, filters.PadZero)

			channels[chLogGabor+2*idx] = re
			channels[chLogGabor+2*idx+1] = im
			channels[chPartial+4*idx] = pxr
			channels[chPartial+4*idx+1] = pyr
			channels[chPartial+4*idx+2] = pxi
			channels[chPartial+4*idx+3] = pyi
			channels[chGaborGM+2*idx] = gradientMagnitude(pxr, pyr)
			channels[chGaborGM+2*idx+1] = gradientMagnitude(pxi, pyi)
		}
	}
	return channels, nil
}

// logOpponent returns the mean-subtracted log intensity, blue-yellow and red-green channels.
func logOpponent(rgb *models.Image) (intensity, by, rg *models.Plane) {
	var logs [3][]float64
	for c, ch := range rgb.Channels {
		l := make([]float64, len(ch.Data))
		for i, v := range ch.Data {
			l[i] = math.Log(v + logOffset)
		}
		floats.AddConst(-stat.Mean(l, nil), l)
		logs[c] = l
	}

	w, h := rgb.Width(), rgb.Height()
	intensity, by, rg = models.NewPlane(w, h), models.NewPlane(w, h), models.NewPlane(w, h)
	r, g, b := logs[0], logs[1], logs[2]
	for i := range intensity.Data {
		intensity.Data[i] = (r[i] + g[i] + b[i]) / math.Sqrt(3)
		by.Data[i] = (r[i] + g[i] - 2*b[i]) / math.Sqrt(6)
		rg.Data[i] = (r[i] - g[i]) / math.Sqrt(2)
	}
	return intensity, by, rg
}

// ILNIQEBlockFeatures computes the 234 IL-NIQE features of one 109-channel block:
// the 18 NIQE features of channel 0, Weibull [scale, shape] of channels 1-3, [mean, variance]
// of channels 4-6, AGGD [α, (βl+βr)/2] of channels 7-84 and Weibull [scale, shape] of channels
// 85-108. Each Weibull group is fitted jointly, so its members share the iteration count.
func ILNIQEBlockFeatures(block []*models.Plane, policy DegeneratePolicy, weibull nss.WeibullOptions) ([]float64, error) {
	if len(block) != ILNIQEChannels {
		return nil, fmt.Errorf("expected %d channels, got %d", ILNIQEChannels, len(block))
	}
	w := newFeatureWriter(ILNIQEFeatureCount, policy)

	if err := appendNIQE(w, block[chStruct]); err != nil {
		return nil, err
	}
	if err := appendWeibull(w, block[chGM:chIntensity], weibull); err != nil {
		return nil, err
	}
	for _, ch := range block[chIntensity:chDeriv] {
		mean, variance := stat.MeanVariance(ch.Data, nil)
		w.row = append(w.row, mean, variance)
	}
	for _, ch := range block[chDeriv:chGaborGM] {
		p, err := nss.FitAGGD(ch.Data)
		if err = w.add(err, 2, p.Alpha, p.MeanBeta()); err != nil {
			return nil, err
		}
	}
	if err := appendWeibull(w, block[chGaborGM:], weibull); err != nil {
		return nil, err
	}
	return w.row, nil
}

func appendWeibull(w *featureWriter, channels []*models.Plane, opts nss.WeibullOptions) error {
	rows := make([][]float64, len(channels))
	for i, ch := range channels {
		rows[i] = ch.Data
	}
	fit, err := nss.FitWeibull(rows, opts)
	if err != nil {
		return w.add(err, 2*len(channels))
	}
	for _, p := range fit.Params {
		w.row = append(w.row, p.Scale, p.Shape)
	}
	return nil
}

// ILNIQEOptions configures ExtractILNIQE.
type ILNIQEOptions struct {
	BlockW int
	BlockH int

	// Resize scales the input to ResizeWidth x ResizeWidth before cropping
	Resize      bool
	ResizeWidth int

	Concat  ScaleConcat
	Policy  DegeneratePolicy
	Weibull nss.WeibullOptions
}

// DefaultILNIQEOptions returns 84 x 84 blocks on a 524 x 524 resized image with the scales
// joined along the feature axis.
func DefaultILNIQEOptions() ILNIQEOptions {
	return ILNIQEOptions{
		BlockW:      84,
		BlockH:      84,
		Resize:      true,
		ResizeWidth: 524,
		Concat:      ConcatFeatures,
		Policy:      FailOnDegenerate,
		Weibull:     nss.DefaultWeibullOptions(),
	}
}

// ExtractILNIQE computes the raw IL-NIQE feature matrix of an RGB image in [0, 255]: n x 468
// with ConcatFeatures, 2n x 234 with ConcatBlocks. Values above FeatureClamp are clamped.
func ExtractILNIQE(ctx context.Context, rgb *models.Image, opts ILNIQEOptions) (*mat.Dense, error) {
	if rgb.NumChannels() != 3 {
		return nil, fmt.Errorf("IL-NIQE needs 3 channels, got %d", rgb.NumChannels())
	}

	img := rgb
	if opts.Resize {
		resized, err := resize.Image(rgb, opts.ResizeWidth, opts.ResizeWidth, true)
		if err != nil {
			return nil, err
		}
		for _, ch := range resized.Channels {
			for i, v := range ch.Data {
				ch.Data[i] = math.Min(math.Max(v, 0), 255)
			}
		}
		img = resized
	}

	grid, err := NewGrid(img.Width(), img.Height(), opts.BlockW, opts.BlockH)
	if err != nil {
		return nil, err
	}
	img = grid.Crop(img)
	opp, err := Opponent(img)
	if err != nil {
		return nil, err
	}

	var out *mat.Dense
	switch opts.Concat {
	case ConcatBlocks:
		out = mat.NewDense(2*grid.Len(), ILNIQEFeatureCount, nil)
	default:
		out = mat.NewDense(grid.Len(), 2*ILNIQEFeatureCount, nil)
	}

	downsample, err := filters.Gaussian(int(math.Ceil(6*sigmaDownsample)), sigmaDownsample)
	if err != nil {
		return nil, err
	}

	for scale := 1; scale <= 2; scale++ {
		channels, err := Composite(img, opp, scale)
		if err != nil {
			return nil, err
		}
		block := make([]*models.Plane, ILNIQEChannels)
		for n := 0; n < grid.Len(); n++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r := grid.Block(n, scale)
			for c, ch := range channels {
				block[c] = cropRect(ch, r)
			}
			feat, err := ILNIQEBlockFeatures(block, opts.Policy, opts.Weibull)
			if err != nil {
				return nil, &BlockError{Scale: scale, Block: n, Err: err}
			}
			clamp(feat)

			row, offset := n, (scale-1)*ILNIQEFeatureCount
			if opts.Concat == ConcatBlocks {
				row, offset = (scale-1)*grid.Len()+n, 0
			}
			copy(out.RawRowView(row)[offset:], feat)
		}

		if scale == 1 {
			img = decimate(img, downsample)
			opp = decimate(opp, downsample)
		}
	}
	return out, nil
}

// decimate low-passes every channel with k (replicate padding) and keeps every other row and
// column starting from the first.
func decimate(im *models.Image, k *filters.Kernel) *models.Image {
	out := &models.Image{Channels: make([]*models.Plane, im.NumChannels())}
	for c, ch := range im.Channels {
		f := filters.Correlate(ch, k, filters.PadReplicate)
		d := models.NewPlane((f.Width+1)/2, (f.Height+1)/2)
		for y := 0; y < d.Height; y++ {
			for x := 0; x < d.Width; x++ {
				d.Set(x, y, f.At(2*x, 2*y))
			}
		}
		out.Channels[c] = d
	}
	return out
}

func clamp(feat []float64) {
	for i, v := range feat {
		if v > FeatureClamp {
			feat[i] = FeatureClamp
		}
	}
}
