package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"blindiqa/internal/models"
)

func TestFromImageGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(2, 1, color.Gray{Y: 200})

	im, err := FromImage(img)
	require.NoError(t, err)
	require.Equal(t, 1, im.NumChannels())
	assert.Equal(t, 200.0, im.Channels[0].At(2, 1))
	assert.Equal(t, 0.0, im.Channels[0].At(0, 0))
}

func TestFromImageRGBWithOffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 20, 12, 22))
	img.SetNRGBA(11, 21, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	im, err := FromImage(img)
	require.NoError(t, err)
	require.Equal(t, 3, im.NumChannels())
	assert.Equal(t, 2, im.Width())
	assert.Equal(t, 10.0, im.Channels[0].At(1, 1))
	assert.Equal(t, 20.0, im.Channels[1].At(1, 1))
	assert.Equal(t, 30.0, im.Channels[2].At(1, 1))
}

func TestPNGRoundTrip(t *testing.T) {
	p := models.NewPlane(4, 3)
	for i := range p.Data {
		p.Data[i] = float64(i * 20)
	}
	im, err := models.NewImage(p, p.Clone(), models.NewConstantPlane(4, 3, 255))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ramp.png")
	require.NoError(t, SavePNG(path, im))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, got.NumChannels())
	assert.Equal(t, p.Data, got.Channels[0].Data)
	assert.Equal(t, 255.0, got.Channels[2].At(3, 2))
}

func TestDecodeFormats(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 3)
	}

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))
	im, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, 8, im.Width())

	buf.Reset()
	require.NoError(t, jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}))
	_, format, err = Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	_, _, err = Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestToImageClamps(t *testing.T) {
	p, err := models.NewPlaneFrom(3, 1, []float64{-5, 127.6, 300})
	require.NoError(t, err)
	im, err := models.NewImage(p)
	require.NoError(t, err)

	out, err := ToImage(im)
	require.NoError(t, err)
	gray := out.(*image.Gray)
	assert.Equal(t, []uint8{0, 128, 255}, gray.Pix)

	_, err = ToImage(&models.Image{Channels: []*models.Plane{p, p}})
	assert.Error(t, err)
}
