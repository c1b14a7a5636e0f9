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

// ILNIQE scores colour images with the Integrated Local NIQE evaluator.
type ILNIQE struct {
	params    ILNIQEParams
	model     *model.Model
	projector *mvg.Projector
	log       zerolog.Logger
	metrics   MetricsCollector
}

// NewILNIQE checks that the model's projection accepts the raw features produced with the
// configured scale concatenation (468 values per block by default, 234 when the scales are
// stacked as extra blocks).
func NewILNIQE(m *model.Model, params ILNIQEParams) (*ILNIQE, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Metric != model.MetricILNIQE {
		return nil, fmt.Errorf("%w: expected an ilniqe model, got %s", model.ErrInvalidModel, m.Metric)
	}
	want := 2 * features.ILNIQEFeatureCount
	if params.Features.Concat == features.ConcatBlocks {
		want = features.ILNIQEFeatureCount
	}
	if m.FeatureDim() != want {
		return nil, &mvg.ErrDimensionMismatch{What: "ilniqe projection input", Expected: want, Actual: m.FeatureDim()}
	}
	projector, err := mvg.NewProjector(m.PCABasis, m.PCAMean)
	if err != nil {
		return nil, err
	}
	return &ILNIQE{
		params:    params,
		model:     m,
		projector: projector,
		log:       params.logger(),
		metrics:   params.metrics(),
	}, nil
}

// Metric implements Scorer.
func (s *ILNIQE) Metric() model.Metric { return model.MetricILNIQE }

// Score implements Scorer.
func (s *ILNIQE) Score(ctx context.Context, im *models.Image) (*Result, error) {
	return s.score(ctx, 0, im)
}

// ScoreBatch implements Scorer.
func (s *ILNIQE) ScoreBatch(ctx context.Context, batch models.Batch) ([]*Result, error) {
	return scoreBatch(ctx, batch, s.params.workers(), s.score)
}

func (s *ILNIQE) score(ctx context.Context, item int, im *models.Image) (*Result, error) {
	start := time.Now()
	res, err := s.run(ctx, item, im)
	return finish(s.log, s.metrics, model.MetricILNIQE, item, start, res, err)
}

func (s *ILNIQE) run(ctx context.Context, item int, im *models.Image) (*Result, error) {
	log := s.log.With().Str("component", "ilniqe").Int("item", item).Logger()

	// Step 1: RGB image
	img, err := validate(im, s.params.CropBorder)
	if err != nil {
		return nil, &StageError{Stage: StagePreprocess, Item: item, Err: err}
	}
	rgb, err := colorspace.GrayToRGB(img)
	if err != nil {
		return nil, &StageError{Stage: StagePreprocess, Item: item, Err: fmt.Errorf("%w: %v", ErrInvalidImage, err)}
	}

	// Step 2: raw block features
	raw, err := features.ExtractILNIQE(ctx, rgb, s.params.Features)
	if err != nil {
		return nil, &StageError{Stage: extractionStage(err), Item: item, Err: err}
	}
	blocks, _ := raw.Dims()
	log.Debug().Int("blocks", blocks).Msg("features extracted")

	// Step 3: projection and test Gaussian from the complete rows only
	projected, err := s.projector.Project(raw)
	if err != nil {
		return nil, &StageError{Stage: StageProjection, Item: item, Err: err}
	}
	complete, dropped := mvg.DropNonFiniteRows(projected)
	if complete == nil {
		return nil, &StageError{Stage: StageScoring, Item: item, Err: mvg.ErrNoFiniteData}
	}
	if !dropped.IsEmpty() {
		log.Debug().Uint64("dropped", dropped.GetCardinality()).Msg("incomplete blocks left out of the covariance")
	}
	cov, err := mvg.Covariance(complete, false)
	if err != nil {
		return nil, &StageError{Stage: StageScoring, Item: item, Err: err}
	}

	// Step 4: per-block distances with missing entries imputed by the test mean
	mu, err := mvg.NanMean(projected)
	if err != nil {
		return nil, &StageError{Stage: StageScoring, Item: item, Err: err}
	}
	filled, err := mvg.FillNonFinite(projected, mu)
	if err != nil {
		return nil, &StageError{Stage: StageScoring, Item: item, Err: err}
	}
	score, err := mvg.PerBlockDistance(filled, s.model.Mean, cov, s.model.Covariance)
	if err != nil {
		return nil, &StageError{Stage: StageScoring, Item: item, Err: err}
	}

	return &Result{
		Score:           score,
		Blocks:          blocks,
		NonFiniteBlocks: dropped,
	}, nil
}
