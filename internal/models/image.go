package models

import (
	"fmt"
)

// Plane is a single image channel stored as a 1D array in row-major order.
type Plane struct {
	// Width is the number of columns
	Width int

	// Height is the number of rows
	Height int

	// Data holds Width*Height intensity values
	Data []float64
}

// NewPlane allocates a zero-filled plane of the given size.
func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// NewPlaneFrom wraps data as a plane. The slice is used as-is, not copied.
func NewPlaneFrom(width, height int, data []float64) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid plane size %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("plane %dx%d needs %d values, got %d", width, height, width*height, len(data))
	}
	return &Plane{Width: width, Height: height, Data: data}, nil
}

// NewConstantPlane returns a plane where every pixel equals value.
func NewConstantPlane(width, height int, value float64) *Plane {
	p := NewPlane(width, height)
	for i := range p.Data {
		p.Data[i] = value
	}
	return p
}

// At returns the value at column x, row y.
func (p *Plane) At(x, y int) float64 {
	return p.Data[y*p.Width+x]
}

// Set stores v at column x, row y.
func (p *Plane) Set(x, y int, v float64) {
	p.Data[y*p.Width+x] = v
}

// Clone returns a deep copy of the plane.
func (p *Plane) Clone() *Plane {
	c := &Plane{Width: p.Width, Height: p.Height, Data: make([]float64, len(p.Data))}
	copy(c.Data, p.Data)
	return c
}

// Crop copies the w x h region whose top-left corner is (x0, y0).
// The region must lie inside the plane.
func (p *Plane) Crop(x0, y0, w, h int) *Plane {
	c := NewPlane(w, h)
	for y := 0; y < h; y++ {
		src := (y0+y)*p.Width + x0
		copy(c.Data[y*w:(y+1)*w], p.Data[src:src+w])
	}
	return c
}

// Map returns a new plane with f applied to every pixel.
func (p *Plane) Map(f func(float64) float64) *Plane {
	c := NewPlane(p.Width, p.Height)
	for i, v := range p.Data {
		c.Data[i] = f(v)
	}
	return c
}

// Image is a multi-channel image. All channels share the same size.
// Channel count is 1 (luma) or 3 (colour), values are nominally in [0, 255].
type Image struct {
	Channels []*Plane
}

// NewImage builds an image from planes, checking that the sizes agree.
func NewImage(channels ...*Plane) (*Image, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("image needs at least one channel")
	}
	w, h := channels[0].Width, channels[0].Height
	for i, c := range channels {
		if c == nil {
			return nil, fmt.Errorf("channel %d is nil", i)
		}
		if c.Width != w || c.Height != h {
			return nil, fmt.Errorf("channel %d is %dx%d, expected %dx%d", i, c.Width, c.Height, w, h)
		}
	}
	return &Image{Channels: channels}, nil
}

// Width of the image in pixels
func (im *Image) Width() int { return im.Channels[0].Width }

// Height of the image in pixels
func (im *Image) Height() int { return im.Channels[0].Height }

// NumChannels returns the channel count
func (im *Image) NumChannels() int { return len(im.Channels) }

// Clone returns a deep copy of the image.
func (im *Image) Clone() *Image {
	out := &Image{Channels: make([]*Plane, len(im.Channels))}
	for i, c := range im.Channels {
		out.Channels[i] = c.Clone()
	}
	return out
}

// Crop copies the same region out of every channel.
func (im *Image) Crop(x0, y0, w, h int) *Image {
	out := &Image{Channels: make([]*Plane, len(im.Channels))}
	for i, c := range im.Channels {
		out.Channels[i] = c.Crop(x0, y0, w, h)
	}
	return out
}

// CropBorder trims border pixels from every edge, turning an H x W image
// into (H-2b) x (W-2b).
func (im *Image) CropBorder(border int) (*Image, error) {
	if border < 0 {
		return nil, fmt.Errorf("negative crop border %d", border)
	}
	if border == 0 {
		return im.Clone(), nil
	}
	w := im.Width() - 2*border
	h := im.Height() - 2*border
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("crop border %d leaves no pixels in %dx%d image", border, im.Width(), im.Height())
	}
	return im.Crop(border, border, w, h), nil
}

// Batch is an ordered set of images scored together,
// the [batch, channel, height, width] input of the scorers.
type Batch []*Image
