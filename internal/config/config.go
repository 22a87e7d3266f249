// Package config handles mutool configuration loading and management.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Faultbox/mu-import/pkg/encoding"
)

// Snap modes for placing the imported root object.
const (
	SnapOrigin = "origin"
	SnapCursor = "cursor"
	SnapVector = "vector"
)

// Texture export formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Config holds all mutool settings.
type Config struct {
	Decode   DecodeConfig   `yaml:"decode"`
	Import   ImportConfig   `yaml:"import"`
	Textures TexturesConfig `yaml:"textures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DecodeConfig holds Mu decoding settings.
type DecodeConfig struct {
	// Charset decodes node and material names that are not valid UTF-8.
	Charset string `yaml:"charset"`
}

// ImportConfig holds import planning settings.
type ImportConfig struct {
	CreateColliders bool       `yaml:"create_colliders"`
	SnapTo          string     `yaml:"snap_to"`     // origin, cursor or vector
	SnapVector      [3]float32 `yaml:"snap_vector"` // used when snap_to is vector
	Cursor          [3]float32 `yaml:"cursor"`      // used when snap_to is cursor
	FPS             float32    `yaml:"fps"`
	FrameStart      float32    `yaml:"frame_start"`
}

// TexturesConfig holds texture resolution and export settings.
type TexturesConfig struct {
	Extensions   []string `yaml:"extensions"` // candidate order, rotated per texture
	Workers      int      `yaml:"workers"`
	BumpSuffix   string   `yaml:"bump_suffix"`
	ExportFormat string   `yaml:"export_format"` // png or webp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Decode: DecodeConfig{
			Charset: encoding.CharsetUTF8,
		},
		Import: ImportConfig{
			CreateColliders: true,
			SnapTo:          SnapOrigin,
			FPS:             24,
			FrameStart:      1,
		},
		Textures: TexturesConfig{
			Extensions:   []string{".dds", ".mbm", ".tga", ".png"},
			Workers:      runtime.NumCPU(),
			BumpSuffix:   "_n",
			ExportFormat: FormatPNG,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	if _, err := encoding.Lookup(c.Decode.Charset); err != nil {
		return fmt.Errorf("decode.charset: %w", err)
	}
	switch c.Import.SnapTo {
	case SnapOrigin, SnapCursor, SnapVector:
	default:
		return fmt.Errorf("import.snap_to: unknown mode %q", c.Import.SnapTo)
	}
	if c.Import.FPS <= 0 {
		return fmt.Errorf("import.fps: must be positive, got %v", c.Import.FPS)
	}
	if c.Textures.Workers < 1 {
		return fmt.Errorf("textures.workers: must be at least 1, got %d", c.Textures.Workers)
	}
	if len(c.Textures.Extensions) == 0 {
		return fmt.Errorf("textures.extensions: empty")
	}
	for _, ext := range c.Textures.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("textures.extensions: %q must start with a dot", ext)
		}
	}
	switch c.Textures.ExportFormat {
	case FormatPNG, FormatWebP:
	default:
		return fmt.Errorf("textures.export_format: unknown format %q", c.Textures.ExportFormat)
	}
	return nil
}

// SnapLocation returns where the imported root object is placed.
func (c *ImportConfig) SnapLocation() [3]float32 {
	switch c.SnapTo {
	case SnapCursor:
		return c.Cursor
	case SnapVector:
		return c.SnapVector
	default:
		return [3]float32{}
	}
}
