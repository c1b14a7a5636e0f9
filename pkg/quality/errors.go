package quality

import (
	"context"
	"errors"
	"fmt"

	"blindiqa/pkg/features"
)

// ErrInvalidImage is returned for images the scorers cannot interpret: wrong channel count,
// non-finite pixels or a crop border that leaves nothing.
var ErrInvalidImage = errors.New("invalid image")

// Stage names the pipeline step an error came from.
type Stage string

const (
	StagePreprocess    Stage = "preprocess"
	StageNormalization Stage = "normalization"
	StageFitting       Stage = "fitting"
	StageProjection    Stage = "projection"
	StageScoring       Stage = "scoring"
)

// StageError wraps a failure with the stage and the batch position of the image.
type StageError struct {
	Stage Stage
	Item  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("item %d: %s: %v", e.Item, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// extractionStage attributes a feature extraction error: fitter failures belong to fitting,
// undersized images to preprocessing and everything else to the filtering steps.
func extractionStage(err error) Stage {
	var blockErr *features.BlockError
	switch {
	case errors.As(err, &blockErr):
		return StageFitting
	case errors.Is(err, features.ErrImageTooSmall):
		return StagePreprocess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StageFitting
	}
	return StageNormalization
}
