package textures

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Export formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Encode writes img top row first in the given format.
func Encode(w io.Writer, img *Image, format string) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img.NRGBA())
	case FormatWebP:
		if err := nativewebp.Encode(w, img.NRGBA(), nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: export format %q", ErrUnsupportedFormat, format)
	}
}

// FormatFromPath picks the export format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: cannot export to %q", ErrUnsupportedFormat, path)
}

// WriteFile encodes img into path, creating parent directories.
func WriteFile(path string, img *Image, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// ExportName returns the output file name for a texture-table entry.
func ExportName(name, format string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + "." + format
}
