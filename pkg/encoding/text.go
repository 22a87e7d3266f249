// Package encoding provides text decoding for strings stored in Mu files.
//
// Exporters write strings as UTF-8, but files produced by older toolchains
// carry names in a legacy code page. Valid UTF-8 is always returned as-is;
// anything else is decoded with the configured fallback charset.
package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Charset names accepted by Lookup.
const (
	CharsetUTF8        = "utf-8"
	CharsetWindows1252 = "windows-1252"
	CharsetEUCKR       = "euc-kr"
)

// Charset decodes raw string bytes into UTF-8.
type Charset struct {
	name string
	enc  xenc.Encoding
}

// UTF8 is the default charset. Invalid sequences are kept as-is.
var UTF8 = Charset{name: CharsetUTF8}

// Lookup returns the charset with the given name (case-insensitive).
// An empty name selects UTF-8.
func Lookup(name string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CharsetUTF8, "utf8":
		return UTF8, nil
	case CharsetWindows1252, "cp1252", "latin1":
		return Charset{name: CharsetWindows1252, enc: charmap.Windows1252}, nil
	case CharsetEUCKR, "cp949":
		return Charset{name: CharsetEUCKR, enc: korean.EUCKR}, nil
	default:
		return Charset{}, fmt.Errorf("unknown charset %q", name)
	}
}

// Name returns the canonical charset name.
func (c Charset) Name() string {
	if c.name == "" {
		return CharsetUTF8
	}
	return c.name
}

// Decode converts raw bytes to a UTF-8 string.
// Returns the original bytes if conversion fails.
func (c Charset) Decode(data []byte) string {
	if c.enc == nil || utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(c.enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// Encode converts a UTF-8 string to the charset's byte form.
// Used by tests and tooling that need to produce legacy names.
func (c Charset) Encode(s string) []byte {
	if c.enc == nil {
		return []byte(s)
	}
	result, _, err := transform.Bytes(c.enc.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}
