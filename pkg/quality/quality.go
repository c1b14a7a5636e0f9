// Package quality scores images against a pristine natural-scene model with NIQE or IL-NIQE.
//
// Scoring one image runs these steps in order:
//  1. Preprocess: validate, crop the border, convert colour
//  2. Extract per-block features at two scales
//  3. Fit a multivariate Gaussian to the block features, projecting them first for IL-NIQE
//  4. Measure the distance to the pristine Gaussian
//
// Lower scores mean better perceptual quality. A scorer is safe for concurrent use: the model
// is never written to and every call works on its own buffers.
package quality

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"blindiqa/internal/models"
	"blindiqa/pkg/model"
)

// Result is the outcome of scoring one image.
type Result struct {
	// Score is the distance to the pristine model
	Score float64

	// Blocks is the number of feature rows the score was computed from
	Blocks int

	// NonFiniteBlocks holds the rows whose features were not all finite
	NonFiniteBlocks *roaring.Bitmap

	Duration time.Duration
}

// Scorer is implemented by NIQE and ILNIQE.
type Scorer interface {
	Metric() model.Metric
	Score(ctx context.Context, im *models.Image) (*Result, error)
	ScoreBatch(ctx context.Context, batch models.Batch) ([]*Result, error)
}

// scoreFunc scores batch item i.
type scoreFunc func(ctx context.Context, item int, im *models.Image) (*Result, error)

// scoreBatch fans items out over at most workers goroutines. Results keep the batch order;
// the first error cancels the remaining items and is returned.
func scoreBatch(ctx context.Context, batch models.Batch, workers int, score scoreFunc) ([]*Result, error) {
	results := make([]*Result, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, im := range batch {
		i, im := i, im
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &StageError{Stage: StagePreprocess, Item: i, Err: err}
			}
			res, err := score(gctx, i, im)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// validate rejects images the pipelines cannot read and applies the crop border.
func validate(im *models.Image, border int) (*models.Image, error) {
	if im == nil || len(im.Channels) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if n := im.NumChannels(); n != 1 && n != 3 {
		return nil, fmt.Errorf("%w: expected 1 or 3 channels, got %d", ErrInvalidImage, n)
	}
	for c, ch := range im.Channels {
		if ch == nil || ch.Width != im.Width() || ch.Height != im.Height() || len(ch.Data) != ch.Width*ch.Height {
			return nil, fmt.Errorf("%w: channel %d is malformed", ErrInvalidImage, c)
		}
		for _, v := range ch.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: channel %d has non-finite pixels", ErrInvalidImage, c)
			}
		}
	}
	cropped, err := im.CropBorder(border)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return cropped, nil
}

// finish logs and records a scoring outcome.
func finish(log zerolog.Logger, metrics MetricsCollector, metric model.Metric, item int, start time.Time, res *Result, err error) (*Result, error) {
	duration := time.Since(start)
	if err != nil {
		metrics.RecordScore(string(metric), 0, 0, duration, err)
		log.Debug().Str("component", "quality").Str("metric", string(metric)).Int("item", item).Err(err).Msg("scoring failed")
		return nil, err
	}

	res.Duration = duration
	nonFinite := int(res.NonFiniteBlocks.GetCardinality())
	metrics.RecordScore(string(metric), res.Blocks, nonFinite, duration, nil)
	if nonFinite > 0 {
		log.Warn().Str("component", "quality").Str("metric", string(metric)).Int("item", item).
			Int("blocks", res.Blocks).Int("nonFinite", nonFinite).Msg("blocks with non-finite features")
	}
	log.Debug().Str("component", "quality").Str("metric", string(metric)).Int("item", item).
		Float64("score", res.Score).Dur("duration", duration).Msg("image scored")
	return res, nil
}
