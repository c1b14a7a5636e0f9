// Package colorspace converts RGB images on the 0-255 scale into the luminance planes used by
// NIQE, and expands grayscale images for the colour pipeline.
package colorspace

import (
	"fmt"
	"math"
	"strings"

	"blindiqa/internal/models"
)

// Space selects the luminance definition.
type Space int

const (
	// YIQ uses Y = 0.299R + 0.587G + 0.114B.
	YIQ Space = iota
	// YCbCr uses the ITU-R BT.601 studio-swing luma, 16..235.
	YCbCr
)

func (s Space) String() string {
	switch s {
	case YIQ:
		return "yiq"
	case YCbCr:
		return "ycbcr"
	}
	return fmt.Sprintf("Space(%d)", int(s))
}

// ParseSpace accepts "yiq" and "ycbcr".
func ParseSpace(s string) (Space, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yiq":
		return YIQ, nil
	case "ycbcr":
		return YCbCr, nil
	}
	return YIQ, fmt.Errorf("unknown colour space %q", s)
}

// ToY returns the rounded luminance of a 3-channel image in [0, 255]. A single-channel image is
// returned unchanged (copied) since it already is luminance.
func ToY(im *models.Image, space Space) (*models.Plane, error) {
	switch im.NumChannels() {
	case 1:
		return im.Channels[0].Clone(), nil
	case 3:
	default:
		return nil, fmt.Errorf("expected 1 or 3 channels, got %d", im.NumChannels())
	}

	r, g, b := im.Channels[0].Data, im.Channels[1].Data, im.Channels[2].Data
	out := models.NewPlane(im.Width(), im.Height())
	for i := range out.Data {
		var y float64
		switch space {
		case YCbCr:
			y = (65.481*r[i]+128.553*g[i]+24.966*b[i])/255 + 16
		default:
			y = 0.299*r[i] + 0.587*g[i] + 0.114*b[i]
		}
		out.Data[i] = math.Round(y)
	}
	return out, nil
}

// Luminance picks the plane NIQE scores: the converted Y channel when useY is set, otherwise
// the first channel as-is.
func Luminance(im *models.Image, useY bool, space Space) (*models.Plane, error) {
	if !useY || im.NumChannels() == 1 {
		return im.Channels[0].Clone(), nil
	}
	return ToY(im, space)
}

// GrayToRGB replicates a single channel three times. Images that already have three channels
// are returned as-is.
func GrayToRGB(im *models.Image) (*models.Image, error) {
	switch im.NumChannels() {
	case 3:
		return im, nil
	case 1:
		ch := im.Channels[0]
		return models.NewImage(ch.Clone(), ch.Clone(), ch.Clone())
	}
	return nil, fmt.Errorf("expected 1 or 3 channels, got %d", im.NumChannels())
}
