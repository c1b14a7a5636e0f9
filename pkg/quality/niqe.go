package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"blindiqa/internal/models"
	"blindiqa/pkg/colorspace"
	"blindiqa/pkg/features"
	"blindiqa/pkg/model"
	"blindiqa/pkg/mvg"
)

// NIQE scores luminance images with the Naturalness Image Quality Evaluator.
type NIQE struct {
	params  NIQEParams
	model   *model.Model
	log     zerolog.Logger
	metrics MetricsCollector
}

// NewNIQE checks the model against the 36-dimensional NIQE feature space and returns a scorer.
//
// Parameters:
//   - m: a validated NIQE pristine model
//   - params: block size, colour handling and the shared settings
//
// Returns:
//   - the scorer, or an error wrapping *mvg.ErrDimensionMismatch or model.ErrInvalidModel
func NewNIQE(m *model.Model, params NIQEParams) (*NIQE, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Metric != model.MetricNIQE {
		return nil, fmt.Errorf("%w: expected a niqe model, got %s", model.ErrInvalidModel, m.Metric)
	}
	if want := 2 * features.NIQEFeatureCount; m.Dim() != want {
		return nil, &mvg.ErrDimensionMismatch{What: "niqe model", Expected: want, Actual: m.Dim()}
	}
	return &NIQE{
		params:  params,
		model:   m,
		log:     params.logger(),
		metrics: params.metrics(),
	}, nil
}

// Metric implements Scorer.
func (n *NIQE) Metric() model.Metric { return model.MetricNIQE }

// Score implements Scorer.
func (n *NIQE) Score(ctx context.Context, im *models.Image) (*Result, error) {
	return n.score(ctx, 0, im)
}

// ScoreBatch implements Scorer.
func (n *NIQE) ScoreBatch(ctx context.Context, batch models.Batch) ([]*Result, error) {
	return scoreBatch(ctx, batch, n.params.workers(), n.score)
}

func (n *NIQE) score(ctx context.Context, item int, im *models.Image) (*Result, error) {
	start := time.Now()
	res, err := n.run(ctx, item, im)
	return finish(n.log, n.metrics, model.MetricNIQE, item, start, res, err)
}

func (n *NIQE) run(ctx context.Context, item int, im *models.Image) (*Result, error) {
	log := n.log.With().Str("component", "niqe").Int("item", item).Logger()

	// Step 1: luminance plane
	img, err := validate(im, n.params.CropBorder)
	if err != nil {
		return nil, &StageError{Stage: StagePreprocess, Item: item, Err: err}
	}
	y, err := colorspace.Luminance(img, n.params.TestYChannel, n.params.ColorSpace)
	if err != nil {
		return nil, &StageError{Stage: StagePreprocess, Item: item, Err: fmt.Errorf("%w: %v", ErrInvalidImage, err)}
	}
	log.Debug().Int("width", y.Width).Int("height", y.Height).Msg("luminance ready")

	// Step 2: block features at both scales
	feats, err := features.ExtractNIQE(ctx, y, n.params.Features)
	if err != nil {
		return nil, &StageError{Stage: extractionStage(err), Item: item, Err: err}
	}
	blocks, _ := feats.Dims()
	log.Debug().Int("blocks", blocks).Msg("features extracted")

	// Step 3: test Gaussian, mean over finite entries, covariance with NaN zeroed
	mu, err := mvg.NanMean(feats)
	if err != nil {
		return nil, &StageError{Stage: StageScoring, Item: item, Err: err}
	}
	cov, err := mvg.Covariance(mvg.NanToNum(feats), false)
	if err != nil {
		return nil, &StageError{Stage: StageScoring, Item: item, Err: err}
	}

	// Step 4: distance between the two Gaussians
	score, err := mvg.PooledDistance(mu, n.model.Mean, cov, n.model.Covariance)
	if err != nil {
		return nil, &StageError{Stage: StageScoring, Item: item, Err: err}
	}

	return &Result{
		Score:           score,
		Blocks:          blocks,
		NonFiniteBlocks: mvg.NonFiniteRows(feats),
	}, nil
}
