package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagCharset     = flag.String("charset", "", "Charset for non-UTF-8 names (utf-8, windows-1252, euc-kr)")
	flagNoColliders = flag.Bool("no-colliders", false, "Skip collider objects when importing")
	flagSnap        = flag.String("snap", "", "Root placement: origin, cursor, or x,y,z")
	flagWorkers     = flag.Int("workers", 0, "Parallel texture decoders")
	flagFormat      = flag.String("format", "", "Texture export format (png, webp)")
	flagFPS         = flag.Float64("fps", 0, "Frames per second for keyframe placement")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments: the command and its operands.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagCharset != "" {
		cfg.Decode.Charset = *flagCharset
	}
	if *flagNoColliders {
		cfg.Import.CreateColliders = false
	}
	if *flagSnap != "" {
		mode, vec, err := parseSnap(*flagSnap)
		if err != nil {
			return err
		}
		cfg.Import.SnapTo = mode
		if mode == SnapVector {
			cfg.Import.SnapVector = vec
		}
	}
	if *flagWorkers > 0 {
		cfg.Textures.Workers = *flagWorkers
	}
	if *flagFormat != "" {
		cfg.Textures.ExportFormat = *flagFormat
	}
	if *flagFPS > 0 {
		cfg.Import.FPS = float32(*flagFPS)
	}
	return nil
}

// parseSnap accepts "origin", "cursor" or a comma-separated vector.
func parseSnap(s string) (string, [3]float32, error) {
	var vec [3]float32
	switch s {
	case SnapOrigin, SnapCursor:
		return s, vec, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return "", vec, fmt.Errorf("-snap %q: want origin, cursor or x,y,z", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return "", vec, fmt.Errorf("-snap %q: %w", s, err)
		}
		vec[i] = float32(v)
	}
	return SnapVector, vec, nil
}
