package quality

import (
	"runtime"

	"github.com/rs/zerolog"

	"blindiqa/pkg/colorspace"
	"blindiqa/pkg/features"
)

// Params holds the settings shared by both scorers.
type Params struct {
	// CropBorder trims this many pixels from every edge before scoring
	CropBorder int

	// Workers bounds the number of images scored concurrently by ScoreBatch;
	// 0 means runtime.NumCPU()
	Workers int

	// Logger receives debug events for every pipeline step; nil disables logging
	Logger *zerolog.Logger

	// Metrics records one event per scored image; nil disables collection
	Metrics MetricsCollector
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

func (p Params) logger() zerolog.Logger {
	if p.Logger == nil {
		return zerolog.Nop()
	}
	return *p.Logger
}

func (p Params) metrics() MetricsCollector {
	if p.Metrics == nil {
		return NoopMetricsCollector{}
	}
	return p.Metrics
}

// NIQEParams configures the NIQE scorer.
type NIQEParams struct {
	Params

	Features features.NIQEOptions

	// TestYChannel scores the luminance of colour images; when false the first channel is used
	TestYChannel bool
	ColorSpace   colorspace.Space
}

// DefaultNIQEParams returns 96 x 96 blocks on the YIQ luminance.
func DefaultNIQEParams() NIQEParams {
	return NIQEParams{
		Features:     features.DefaultNIQEOptions(),
		TestYChannel: true,
		ColorSpace:   colorspace.YIQ,
	}
}

// ILNIQEParams configures the IL-NIQE scorer.
type ILNIQEParams struct {
	Params

	Features features.ILNIQEOptions
}

// DefaultILNIQEParams returns 84 x 84 blocks on a 524 x 524 resized image.
func DefaultILNIQEParams() ILNIQEParams {
	return ILNIQEParams{Features: features.DefaultILNIQEOptions()}
}
