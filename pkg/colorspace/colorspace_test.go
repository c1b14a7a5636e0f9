package colorspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blindiqa/internal/models"
)

func rgb(t *testing.T, r, g, b float64) *models.Image {
	t.Helper()
	im, err := models.NewImage(
		models.NewConstantPlane(2, 2, r),
		models.NewConstantPlane(2, 2, g),
		models.NewConstantPlane(2, 2, b),
	)
	require.NoError(t, err)
	return im
}

func TestToYIQ(t *testing.T) {
	y, err := ToY(rgb(t, 255, 255, 255), YIQ)
	require.NoError(t, err)
	assert.Equal(t, 255.0, y.At(0, 0))

	y, err = ToY(rgb(t, 100, 0, 0), YIQ)
	require.NoError(t, err)
	assert.Equal(t, 30.0, y.At(1, 1)) // 29.9 rounded
}

func TestToYCbCr(t *testing.T) {
	black, err := ToY(rgb(t, 0, 0, 0), YCbCr)
	require.NoError(t, err)
	assert.Equal(t, 16.0, black.At(0, 0))

	white, err := ToY(rgb(t, 255, 255, 255), YCbCr)
	require.NoError(t, err)
	assert.Equal(t, 235.0, white.At(0, 0))
}

func TestLuminance(t *testing.T) {
	im := rgb(t, 10, 200, 30)
	first, err := Luminance(im, false, YIQ)
	require.NoError(t, err)
	assert.Equal(t, 10.0, first.At(0, 0))

	first.Set(0, 0, 99)
	assert.Equal(t, 10.0, im.Channels[0].At(0, 0), "luminance must not alias the input")

	y, err := Luminance(im, true, YIQ)
	require.NoError(t, err)
	assert.Equal(t, 124.0, y.At(0, 0)) // 2.99 + 117.4 + 3.42
}

func TestGrayToRGB(t *testing.T) {
	gray, err := models.NewImage(models.NewConstantPlane(3, 2, 7))
	require.NoError(t, err)
	out, err := GrayToRGB(gray)
	require.NoError(t, err)
	require.Equal(t, 3, out.NumChannels())
	for _, ch := range out.Channels {
		assert.Equal(t, 7.0, ch.At(2, 1))
	}

	_, err = ToY(&models.Image{Channels: []*models.Plane{models.NewPlane(1, 1), models.NewPlane(1, 1)}}, YIQ)
	assert.Error(t, err)
}

func TestParseSpace(t *testing.T) {
	s, err := ParseSpace("YCbCr")
	require.NoError(t, err)
	assert.Equal(t, YCbCr, s)
	assert.Equal(t, "yiq", YIQ.String())
	_, err = ParseSpace("lab")
	assert.Error(t, err)
}
