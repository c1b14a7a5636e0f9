package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientPlane(w, h int) *Plane {
	p := NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.Set(x, y, float64(y*w+x))
		}
	}
	return p
}

func TestPlaneCropCopies(t *testing.T) {
	p := gradientPlane(6, 4)
	c := p.Crop(1, 2, 3, 2)

	require.Equal(t, 3, c.Width)
	require.Equal(t, 2, c.Height)
	assert.Equal(t, []float64{13, 14, 15, 19, 20, 21}, c.Data)

	c.Set(0, 0, -1)
	assert.Equal(t, 13.0, p.At(1, 2), "crop must not alias the source")
}

func TestNewPlaneFromValidatesLength(t *testing.T) {
	_, err := NewPlaneFrom(2, 2, []float64{1, 2, 3})
	assert.Error(t, err)

	p, err := NewPlaneFrom(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.At(1, 1))
}

func TestNewImageRejectsMismatchedChannels(t *testing.T) {
	_, err := NewImage(NewPlane(4, 4), NewPlane(4, 3))
	assert.Error(t, err)

	_, err = NewImage()
	assert.Error(t, err)
}

func TestImageCropBorder(t *testing.T) {
	im, err := NewImage(gradientPlane(10, 8), gradientPlane(10, 8), gradientPlane(10, 8))
	require.NoError(t, err)

	cropped, err := im.CropBorder(2)
	require.NoError(t, err)
	assert.Equal(t, 6, cropped.Width())
	assert.Equal(t, 4, cropped.Height())
	assert.Equal(t, im.Channels[1].At(2, 2), cropped.Channels[1].At(0, 0))

	_, err = im.CropBorder(4)
	assert.Error(t, err)
}
