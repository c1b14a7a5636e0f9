// Package imageio decodes image files into float planes on the 0-255 scale.
//
// Supported formats are those registered with the image package: JPEG, PNG and GIF from the
// standard library plus BMP, TIFF and WebP from golang.org/x/image.
package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"blindiqa/internal/models"
)

// Load opens and decodes an image file.
func Load(path string) (*models.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	im, _, err := Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return im, nil
}

// Decode reads any registered format and reports its name.
func Decode(r io.Reader) (*models.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	im, err := FromImage(img)
	if err != nil {
		return nil, "", err
	}
	return im, format, nil
}

// FromImage converts img to planes. Grayscale images give one channel, everything else
// three RGB channels. 16-bit samples are rescaled to 0-255 without rounding.
func FromImage(img image.Image) (*models.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		p := models.NewPlane(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				gray, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				p.Set(x, y, float64(gray)/257)
			}
		}
		return models.NewImage(p)
	}

	r, g, bl := models.NewPlane(w, h), models.NewPlane(w, h), models.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			r.Set(x, y, float64(c.R)/257)
			g.Set(x, y, float64(c.G)/257)
			bl.Set(x, y, float64(c.B)/257)
		}
	}
	return models.NewImage(r, g, bl)
}

// ToImage converts planes back to an 8-bit image, rounding and clamping to [0, 255].
func ToImage(im *models.Image) (image.Image, error) {
	rect := image.Rect(0, 0, im.Width(), im.Height())
	switch im.NumChannels() {
	case 1:
		out := image.NewGray(rect)
		for i, v := range im.Channels[0].Data {
			out.Pix[i] = to8(v)
		}
		return out, nil
	case 3:
		out := image.NewNRGBA(rect)
		for i := range im.Channels[0].Data {
			out.Pix[4*i] = to8(im.Channels[0].Data[i])
			out.Pix[4*i+1] = to8(im.Channels[1].Data[i])
			out.Pix[4*i+2] = to8(im.Channels[2].Data[i])
			out.Pix[4*i+3] = 255
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot encode %d channels", im.NumChannels())
}

// SavePNG writes im as a PNG file.
func SavePNG(path string, im *models.Image) error {
	img, err := ToImage(im)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func to8(v float64) uint8 {
	return uint8(math.Min(math.Max(math.Round(v), 0), 255))
}
