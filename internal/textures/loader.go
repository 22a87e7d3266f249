package textures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ftrvxmtrx/tga"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/mu-import/pkg/formats"
)

// Loader errors.
var (
	ErrNotFound          = errors.New("texture not found")
	ErrUnsupportedFormat = errors.New("unsupported texture format")
)

// standardDecoders picks the decoder by extension. The TGA package registers
// with an empty magic string, so image.Decode would route every file to it.
var standardDecoders = map[string]func(io.Reader) (image.Image, error){
	".png": png.Decode,
	".tga": tga.Decode,
	".bmp": bmp.Decode,
}

// DefaultExtensions is the candidate order tried for every texture.
var DefaultExtensions = []string{".dds", ".mbm", ".tga", ".png"}

// Options configures a Loader.
type Options struct {
	// Extensions is the candidate order. Each texture starts at its own
	// extension and wraps around. Empty means DefaultExtensions.
	Extensions []string
	// BumpSuffix marks standard images that hold packed normals, e.g. "_n".
	// The remap applies to PNG, TGA and BMP files whose base name ends in
	// the suffix; MBM files carry their own bump flag. Empty disables the
	// remap for standard images.
	BumpSuffix string
	// Workers bounds LoadAll's parallelism. Values below 1 mean 1.
	Workers int
	Logger  *zap.Logger
}

// Loader resolves texture-table names against a directory.
type Loader struct {
	dir   string
	opts  Options
	log   *zap.Logger
	cache *Cache
}

// NewLoader creates a loader for textures stored in dir.
func NewLoader(dir string, opts Options) *Loader {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{dir: dir, opts: opts, log: log, cache: NewCache()}
}

// Cache returns the loader's decoded-image cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Candidates returns the file names tried for a texture, in order. The
// extension list is rotated to start at the name's own extension; a name
// with an unknown extension starts at the first one.
func (l *Loader) Candidates(name string) []string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	exts := l.opts.Extensions

	start := 0
	for i, e := range exts {
		if strings.EqualFold(e, ext) {
			start = i
			break
		}
	}

	out := make([]string, 0, len(exts))
	for i := range exts {
		out = append(out, base+exts[(start+i)%len(exts)])
	}
	return out
}

// Load resolves and decodes one texture. A missing file or a decode failure
// moves on to the next candidate; the error reports every attempt.
func (l *Loader) Load(name string) (*Image, error) {
	var attempts error
	for _, candidate := range l.Candidates(name) {
		path := filepath.Join(l.dir, candidate)

		if img, ok := l.cache.Get(path); ok {
			return withName(img, name), nil
		}

		img, err := l.decodeFile(path)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				l.log.Debug("texture candidate failed", zap.String("path", path), zap.Error(err))
			}
			attempts = multierr.Append(attempts, err)
			continue
		}

		l.cache.Set(path, img)
		l.log.Debug("loaded texture",
			zap.String("name", name),
			zap.String("path", path),
			zap.Int("width", img.Width),
			zap.Int("height", img.Height),
			zap.Bool("bump", img.Bump))
		return withName(img, name), nil
	}
	return nil, fmt.Errorf("texture %q: %w", name, attempts)
}

// withName returns a shallow copy carrying the requested texture name.
func withName(img *Image, name string) *Image {
	out := *img
	out.Name = name
	return &out
}

// LoadAll loads every entry of a texture table in parallel. The result has
// one slot per entry, in table order, nil where loading failed. A failure
// never stops the other textures; all failures are combined in the error.
func (l *Loader) LoadAll(ctx context.Context, table []formats.MuTexture) ([]*Image, error) {
	images := make([]*Image, len(table))
	errs := make([]error, len(table))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < l.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				img, err := l.Load(table[i].Name)
				if err != nil {
					l.log.Warn("texture not loaded", zap.String("name", table[i].Name), zap.Error(err))
					errs[i] = err
					continue
				}
				images[i] = img
			}
		}()
	}

	var cancelled error
feed:
	for i := range table {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return images, multierr.Combine(append(errs, cancelled)...)
}

func (l *Loader) decodeFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mbm":
		mbm, err := formats.ParseMBM(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &Image{
			Path:   path,
			Width:  mbm.Width,
			Height: mbm.Height,
			Pixels: mbm.Pixels,
			Bump:   mbm.Bump,
		}, nil
	case ".dds":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	default:
		return l.decodeStandard(path, data)
	}
}

// decodeStandard decodes PNG, TGA and BMP files.
func (l *Loader) decodeStandard(path string, data []byte) (*Image, error) {
	format := strings.ToLower(filepath.Ext(path))
	decode, ok := standardDecoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	nrgba := toNRGBA(src)
	img := &Image{
		Path:   path,
		Width:  nrgba.Rect.Dx(),
		Height: nrgba.Rect.Dy(),
		Pixels: fromNRGBA(nrgba),
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if l.opts.BumpSuffix != "" && strings.HasSuffix(base, l.opts.BumpSuffix) {
		img.Pixels = formats.ConvertBump(img.Pixels, img.Width, img.Height)
		img.Bump = true
	}
	l.log.Debug("decoded standard image", zap.String("path", path), zap.String("format", format))
	return img, nil
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
