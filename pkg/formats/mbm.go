// MBM raster container decoder.
package formats

import (
	"errors"
	"fmt"
	"os"
)

// MBM format errors.
var (
	ErrBadMagic               = errors.New("invalid MBM magic")
	ErrUnsupportedPixelFormat = errors.New("unsupported MBM pixel format")
	ErrInvalidImageSize       = errors.New("invalid image dimensions")
)

const (
	// MBMMagic is "\x03KSP" read as a little-endian int32.
	MBMMagic int32 = 0x50534B03

	mbmHeaderSize = 20
)

// MBM represents a decoded MBM image. Pixels are RGBA, 4 bytes per pixel,
// rows in container order (bottom row first).
type MBM struct {
	Width        int
	Height       int
	Bump         bool
	BitsPerPixel int
	Pixels       []byte
}

// ParseMBM decodes an MBM image. Bump-flagged images are returned with the
// bump remap already applied.
func ParseMBM(data []byte) (*MBM, error) {
	c := NewCursor(data)
	if c.Remaining() < mbmHeaderSize {
		return nil, fmt.Errorf("%w: MBM header needs %d bytes, have %d",
			ErrUnexpectedEndOfData, mbmHeaderSize, len(data))
	}

	var header [5]int32
	if err := c.int32s(header[:]); err != nil {
		return nil, err
	}
	magic, width, height, bump, bpp := header[0], header[1], header[2], header[3], header[4]

	if magic != MBMMagic {
		return nil, fmt.Errorf("%w: 0x%08X", ErrBadMagic, uint32(magic))
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, width, height)
	}

	img := &MBM{
		Width:        int(width),
		Height:       int(height),
		Bump:         bump != 0,
		BitsPerPixel: int(bpp),
	}
	pixelCount := img.Width * img.Height
	if pixelCount > c.Remaining() {
		return nil, fmt.Errorf("%w: %dx%d MBM with %d payload bytes",
			ErrUnexpectedEndOfData, width, height, c.Remaining())
	}

	switch bpp {
	case 32:
		pixels, err := c.Bytes(pixelCount * 4)
		if err != nil {
			return nil, fmt.Errorf("MBM pixels: %w", err)
		}
		img.Pixels = pixels
	case 24:
		rgb, err := c.Bytes(pixelCount * 3)
		if err != nil {
			return nil, fmt.Errorf("MBM pixels: %w", err)
		}
		img.Pixels = make([]byte, pixelCount*4)
		for i := 0; i < pixelCount; i++ {
			img.Pixels[i*4] = rgb[i*3]
			img.Pixels[i*4+1] = rgb[i*3+1]
			img.Pixels[i*4+2] = rgb[i*3+2]
			img.Pixels[i*4+3] = 255
		}
	default:
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedPixelFormat, bpp)
	}

	if img.Bump {
		img.Pixels = ConvertBump(img.Pixels, img.Width, img.Height)
	}
	return img, nil
}

// ParseMBMFile parses an MBM file from disk.
func ParseMBMFile(path string) (*MBM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MBM file: %w", err)
	}
	return ParseMBM(data)
}

// ConvertBump remaps a packed normal map into renderer form: every pixel
// not on the outer 1-pixel border becomes (A, B, 255, 255). Border pixels
// are copied unchanged. The input slice is not modified.
func ConvertBump(pixels []byte, width, height int) []byte {
	out := make([]byte, len(pixels))
	copy(out, pixels)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := (y*width + x) * 4
			a, b := pixels[i+3], pixels[i+2]
			out[i] = a
			out[i+1] = b
			out[i+2] = 255
			out[i+3] = 255
		}
	}
	return out
}
