package textures

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"go.uber.org/multierr"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/mu-import/pkg/formats"
)

func writeMBM(t *testing.T, path string, width, height int32, bump bool, rgba []byte) {
	t.Helper()
	var buf bytes.Buffer
	var bumpFlag int32
	if bump {
		bumpFlag = 1
	}
	binary.Write(&buf, binary.LittleEndian, []int32{formats.MBMMagic, width, height, bumpFlag, 32})
	buf.Write(rgba)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

// writePNG writes an image whose rows top to bottom have the given colours.
func writePNG(t *testing.T, path string, width int, rows ...color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, len(rows)))
	for y, c := range rows {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

var (
	red  = color.NRGBA{255, 0, 0, 255}
	blue = color.NRGBA{0, 0, 255, 255}
)

func TestCandidates(t *testing.T) {
	l := NewLoader("", Options{})

	tests := []struct {
		name string
		want []string
	}{
		{"hull.dds", []string{"hull.dds", "hull.mbm", "hull.tga", "hull.png"}},
		{"hull.mbm", []string{"hull.mbm", "hull.tga", "hull.png", "hull.dds"}},
		{"hull.png", []string{"hull.png", "hull.dds", "hull.mbm", "hull.tga"}},
		{"hull.jpg", []string{"hull.dds", "hull.mbm", "hull.tga", "hull.png"}},
		{"hull", []string{"hull.dds", "hull.mbm", "hull.tga", "hull.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Candidates(tt.name); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Candidates = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadMBMFallback(t *testing.T) {
	dir := t.TempDir()
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	writeMBM(t, filepath.Join(dir, "hull.mbm"), 1, 2, false, pixels)

	img, err := NewLoader(dir, Options{}).Load("hull.dds")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Name != "hull.dds" || filepath.Base(img.Path) != "hull.mbm" {
		t.Errorf("name = %q path = %q", img.Name, img.Path)
	}
	// MBM rows are already bottom first.
	if !bytes.Equal(img.Pixels, pixels) {
		t.Errorf("pixels = %v, want %v", img.Pixels, pixels)
	}
}

func TestLoadPNGBottomRowFirst(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "flag.png"), 1, red, blue)

	img, err := NewLoader(dir, Options{}).Load("flag.mbm")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []byte{0, 0, 255, 255, 255, 0, 0, 255}
	if !bytes.Equal(img.Pixels, want) {
		t.Errorf("pixels = %v, want blue row first %v", img.Pixels, want)
	}
	if img.Bump {
		t.Error("plain image marked as bump")
	}

	top := img.NRGBA().NRGBAAt(0, 0)
	if top != red {
		t.Errorf("NRGBA top pixel = %v, want red", top)
	}
}

func TestLoadBMP(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, red)
	src.SetNRGBA(1, 0, blue)
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "decal.bmp"), buf.Bytes(), 0644)

	l := NewLoader(dir, Options{Extensions: []string{".png", ".bmp"}})
	img, err := l.Load("decal.png")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(img.Pixels, []byte{255, 0, 0, 255, 0, 0, 255, 255}) {
		t.Errorf("pixels = %v", img.Pixels)
	}
}

func TestLoadTGANextToPNG(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	src.SetNRGBA(0, 0, blue)
	src.SetNRGBA(0, 1, red)
	var buf bytes.Buffer
	if err := tga.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "sail.tga"), buf.Bytes(), 0644)
	writePNG(t, filepath.Join(dir, "hull.png"), 1, red, blue)

	l := NewLoader(dir, Options{})
	sail, err := l.Load("sail.tga")
	if err != nil {
		t.Fatalf("Load tga: %v", err)
	}
	if !bytes.Equal(sail.Pixels, []byte{255, 0, 0, 255, 0, 0, 255, 255}) {
		t.Errorf("tga pixels = %v", sail.Pixels)
	}
	hull, err := l.Load("hull.png")
	if err != nil {
		t.Fatalf("Load png: %v", err)
	}
	if !bytes.Equal(hull.Pixels, []byte{0, 0, 255, 255, 255, 0, 0, 255}) {
		t.Errorf("png pixels = %v", hull.Pixels)
	}
}

func TestLoadMismatchedContent(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "decal.bmp"), 1, red)

	l := NewLoader(dir, Options{Extensions: []string{".bmp"}})
	if _, err := l.Load("decal.bmp"); err == nil {
		t.Fatal("PNG data behind a .bmp name decoded without error")
	}
}

func TestLoadStandardBump(t *testing.T) {
	dir := t.TempDir()
	c := color.NRGBA{10, 20, 30, 40}
	writePNG(t, filepath.Join(dir, "panel_n.png"), 3, c, c, c)

	img, err := NewLoader(dir, Options{BumpSuffix: "_n"}).Load("panel_n.png")
	if err != nil {
		t.Fatal(err)
	}
	if !img.Bump {
		t.Error("Bump = false for _n texture")
	}
	center := (1*3 + 1) * 4
	if !bytes.Equal(img.Pixels[center:center+4], []byte{40, 30, 255, 255}) {
		t.Errorf("center = %v", img.Pixels[center:center+4])
	}
	if !bytes.Equal(img.Pixels[0:4], []byte{10, 20, 30, 40}) {
		t.Errorf("border = %v", img.Pixels[0:4])
	}
}

func TestLoadDDSUnsupportedFallsThrough(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "hull.dds"), []byte("DDS |not really"), 0644)
	writePNG(t, filepath.Join(dir, "hull.png"), 1, red)

	img, err := NewLoader(dir, Options{}).Load("hull.dds")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Base(img.Path) != "hull.png" {
		t.Errorf("loaded %s, want hull.png", img.Path)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "only.dds"), []byte("DDS "), 0644)
	l := NewLoader(dir, Options{})

	_, err := l.Load("missing.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing texture: err = %v, want ErrNotFound", err)
	}

	_, err = l.Load("only.dds")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("dds only: err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 1, red)
	writeMBM(t, filepath.Join(dir, "b.mbm"), 1, 1, false, []byte{9, 9, 9, 9})

	table := []formats.MuTexture{
		{Name: "a.png"},
		{Name: "missing.mbm"},
		{Name: "b.mbm"},
		{Name: "a.png"},
	}
	l := NewLoader(dir, Options{Workers: 3})
	images, err := l.LoadAll(context.Background(), table)

	if len(images) != len(table) {
		t.Fatalf("got %d slots, want %d", len(images), len(table))
	}
	if images[0] == nil || images[2] == nil || images[3] == nil {
		t.Fatal("loadable textures missing")
	}
	if images[1] != nil {
		t.Error("missing texture produced an image")
	}
	if images[2].Pixels[0] != 9 {
		t.Error("slots out of table order")
	}

	if errs := multierr.Errors(err); len(errs) != 1 || !errors.Is(errs[0], ErrNotFound) {
		t.Errorf("errors = %v, want one ErrNotFound", errs)
	}
}

func TestLoadAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	images, err := NewLoader(t.TempDir(), Options{}).LoadAll(ctx, []formats.MuTexture{{Name: "a.png"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if images[0] != nil {
		t.Error("cancelled load produced an image")
	}
}

func TestCacheSharesDecodedFiles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 1, red)
	l := NewLoader(dir, Options{})

	first, err := l.Load("a.png")
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.Load("a.dds")
	if err != nil {
		t.Fatal(err)
	}
	if second.Name != "a.dds" || first.Name != "a.png" {
		t.Errorf("names = %q, %q", first.Name, second.Name)
	}

	st := l.Cache().Stats()
	if st.Hits != 1 || st.Entries != 1 {
		t.Errorf("cache stats = %+v, want 1 hit and 1 entry", st)
	}

	l.Cache().Clear()
	if st := l.Cache().Stats(); st != (CacheStats{}) {
		t.Errorf("stats after Clear = %+v", st)
	}
}
