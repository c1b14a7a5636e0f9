package features

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"blindiqa/internal/models"
	"blindiqa/pkg/normalize"
	"blindiqa/pkg/nss"
	"blindiqa/pkg/resize"
)

// NIQEFeatureCount is the number of features per block and scale.
const NIQEFeatureCount = 18

var nan = math.NaN()

// shifts are the (row, column) offsets of the neighbour products: horizontal, vertical, main
// diagonal and anti-diagonal.
var shifts = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// NIQEBlockFeatures computes the 18 NIQE features of a normalised block:
//
//	[α, (βl+βr)/2] of the block itself, then for each neighbour product
//	[α, mean, βl, βr] of block · roll(block, shift)
//
// Neighbours wrap around inside the block.
func NIQEBlockFeatures(block *models.Plane, policy DegeneratePolicy) ([]float64, error) {
	w := newFeatureWriter(NIQEFeatureCount, policy)
	if err := appendNIQE(w, block); err != nil {
		return nil, err
	}
	return w.row, nil
}

func appendNIQE(w *featureWriter, block *models.Plane) error {
	p, err := nss.FitAGGD(block.Data)
	if err = w.add(err, 2, p.Alpha, p.MeanBeta()); err != nil {
		return err
	}
	for _, s := range shifts {
		p, err := nss.FitAGGD(rollProduct(block, s[0], s[1]))
		if err = w.add(err, 4, p.Alpha, p.Mean(), p.BetaLeft, p.BetaRight); err != nil {
			return err
		}
	}
	return nil
}

// rollProduct returns b[y][x] · b[y-dy][x-dx] with indices taken modulo the block size.
func rollProduct(b *models.Plane, dy, dx int) []float64 {
	out := make([]float64, len(b.Data))
	for y := 0; y < b.Height; y++ {
		sy := ((y-dy)%b.Height + b.Height) % b.Height
		for x := 0; x < b.Width; x++ {
			sx := ((x-dx)%b.Width + b.Width) % b.Width
			out[y*b.Width+x] = b.Data[y*b.Width+x] * b.Data[sy*b.Width+sx]
		}
	}
	return out
}

// NIQEOptions configures ExtractNIQE.
type NIQEOptions struct {
	BlockW int
	BlockH int
	Policy DegeneratePolicy
}

// DefaultNIQEOptions uses the recommended 96 x 96 blocks.
func DefaultNIQEOptions() NIQEOptions {
	return NIQEOptions{BlockW: 96, BlockH: 96, Policy: FailOnDegenerate}
}

// ExtractNIQE computes the n x 36 NIQE feature matrix of a luminance plane in [0, 255]: the
// plane is cropped to whole blocks, features are taken from the normalised plane at full
// resolution and again after a bicubic half-size resize, and the two scales are joined along
// the feature axis.
func ExtractNIQE(ctx context.Context, y *models.Plane, opts NIQEOptions) (*mat.Dense, error) {
	grid, err := NewGrid(y.Width, y.Height, opts.BlockW, opts.BlockH)
	if err != nil {
		return nil, err
	}

	img := y.Crop(0, 0, grid.Width(), grid.Height())
	out := mat.NewDense(grid.Len(), 2*NIQEFeatureCount, nil)
	for scale := 1; scale <= 2; scale++ {
		normalized, err := normalize.Normalize(img, normalize.NIQEOptions())
		if err != nil {
			return nil, err
		}
		offset := (scale - 1) * NIQEFeatureCount
		for n := 0; n < grid.Len(); n++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			feat, err := NIQEBlockFeatures(cropRect(normalized, grid.Block(n, scale)), opts.Policy)
			if err != nil {
				return nil, &BlockError{Scale: scale, Block: n, Err: err}
			}
			copy(out.RawRowView(n)[offset:], feat)
		}
		if scale == 1 {
			if img, err = resize.ByScale(img, 0.5, true); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
