package features

import (
	"fmt"

	"blindiqa/internal/models"
)

// Rect is the half-open pixel region [X0, X1) x [Y0, Y1).
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Dx is the width of the region.
func (r Rect) Dx() int { return r.X1 - r.X0 }

// Dy is the height of the region.
func (r Rect) Dy() int { return r.Y1 - r.Y0 }

// Grid tiles an image into non-overlapping blocks. Partial blocks along the right and bottom
// edges are dropped.
type Grid struct {
	// BlockW and BlockH are the block size at scale 1
	BlockW int
	BlockH int

	// Cols and Rows count the whole blocks that fit
	Cols int
	Rows int
}

// NewGrid tiles a width x height image into blockW x blockH blocks. An image smaller than one
// block in either direction is rejected.
func NewGrid(width, height, blockW, blockH int) (Grid, error) {
	if blockW <= 0 || blockH <= 0 {
		return Grid{}, fmt.Errorf("invalid block size %dx%d", blockW, blockH)
	}
	g := Grid{
		BlockW: blockW,
		BlockH: blockH,
		Cols:   width / blockW,
		Rows:   height / blockH,
	}
	if g.Cols == 0 || g.Rows == 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d image, %dx%d blocks", ErrImageTooSmall, width, height, blockW, blockH)
	}
	return g, nil
}

// Len is the number of blocks.
func (g Grid) Len() int { return g.Cols * g.Rows }

// Width is the width of the tiled area.
func (g Grid) Width() int { return g.Cols * g.BlockW }

// Height is the height of the tiled area.
func (g Grid) Height() int { return g.Rows * g.BlockH }

// Block returns the region of block n at the given scale (1 for full resolution, 2 for half).
// Blocks are numbered column by column: n / Rows is the column and n % Rows the row.
func (g Grid) Block(n, scale int) Rect {
	col, row := n/g.Rows, n%g.Rows
	return Rect{
		X0: col * g.BlockW / scale,
		Y0: row * g.BlockH / scale,
		X1: (col + 1) * g.BlockW / scale,
		Y1: (row + 1) * g.BlockH / scale,
	}
}

// Crop copies the tiled area out of every channel of im.
func (g Grid) Crop(im *models.Image) *models.Image {
	return im.Crop(0, 0, g.Width(), g.Height())
}

func cropRect(p *models.Plane, r Rect) *models.Plane {
	return p.Crop(r.X0, r.Y0, r.Dx(), r.Dy())
}
