package quality

import (
	"fmt"

	"blindiqa/pkg/colorspace"
	"blindiqa/pkg/config"
	"blindiqa/pkg/features"
	"blindiqa/pkg/model"
	"blindiqa/pkg/nss"
)

// NewFromConfig builds the scorer matching the model's metric. Workers and the degenerate
// block policy come from cfg; logger and metrics from base.
func NewFromConfig(m *model.Model, cfg *config.Config, base Params) (Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := features.ParseDegeneratePolicy(cfg.Processing.DegenerateBlocks)
	if err != nil {
		return nil, err
	}
	base.Workers = cfg.Processing.Workers

	switch m.Metric {
	case model.MetricNIQE:
		space, err := colorspace.ParseSpace(cfg.NIQE.ColorSpace)
		if err != nil {
			return nil, err
		}
		params := NIQEParams{
			Params: base,
			Features: features.NIQEOptions{
				BlockW: cfg.NIQE.BlockSizeW,
				BlockH: cfg.NIQE.BlockSizeH,
				Policy: policy,
			},
			TestYChannel: cfg.NIQE.TestYChannel,
			ColorSpace:   space,
		}
		params.CropBorder = cfg.NIQE.CropBorder
		return NewNIQE(m, params)

	case model.MetricILNIQE:
		concat, err := features.ParseScaleConcat(cfg.ILNIQE.ScaleConcat)
		if err != nil {
			return nil, err
		}
		params := ILNIQEParams{
			Params: base,
			Features: features.ILNIQEOptions{
				BlockW:      cfg.ILNIQE.BlockSizeW,
				BlockH:      cfg.ILNIQE.BlockSizeH,
				Resize:      cfg.ILNIQE.Resize,
				ResizeWidth: cfg.ILNIQE.ResizeWidth,
				Concat:      concat,
				Policy:      policy,
				Weibull: nss.WeibullOptions{
					MaxIter: cfg.ILNIQE.WeibullMaxIter,
					Tol:     cfg.ILNIQE.WeibullTol,
				},
			},
		}
		params.CropBorder = cfg.ILNIQE.CropBorder
		return NewILNIQE(m, params)
	}
	return nil, fmt.Errorf("%w: unknown metric %q", model.ErrInvalidModel, m.Metric)
}
