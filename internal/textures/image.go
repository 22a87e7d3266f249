// Package textures resolves a Mu texture table against the files next to the
// model, decodes them and exports them as standard images.
package textures

import (
	"image"

	"github.com/anthonynsimon/bild/transform"
)

// Image is a decoded texture. Pixels are non-premultiplied RGBA, 4 bytes per
// pixel, bottom row first.
type Image struct {
	Name   string // texture-table name
	Path   string // file the pixels came from
	Width  int
	Height int
	Pixels []byte
	Bump   bool // the bump remap was applied
}

// NRGBA returns the image top row first, as image/png and friends expect.
func (img *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    flipRows(img.Pixels, img.Width, img.Height),
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// fromNRGBA converts a top-down image into bottom-up pixel rows.
func fromNRGBA(src *image.NRGBA) []byte {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(pix[y*w*4:(y+1)*w*4], src.Pix[src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y):])
	}
	return flipRows(pix, w, h)
}

// flipRows reverses the row order of tightly packed 4-byte pixels. The bytes
// are wrapped as RGBA only to drive the flip; no colour conversion happens.
func flipRows(pix []byte, width, height int) []byte {
	if width == 0 || height == 0 {
		return []byte{}
	}
	src := &image.RGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	return transform.FlipV(src).Pix
}
