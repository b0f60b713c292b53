// Package document reads the input text for a run. Files arrive in whatever
// encoding the author's editor produced, so reading falls back through
// UTF-8, UTF-16 and Latin-1 instead of failing on undecodable bytes.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Document is the full input text, read once and immutable afterwards.
type Document struct {
	Text     string
	Markdown bool
	Source   string
	Encoding string
}

// ReadFile reads and decodes the file at path. Markdown handling is switched
// on automatically for recognized Markdown extensions.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text, enc := decodeText(data)
	return &Document{
		Text:     text,
		Markdown: IsMarkdownPath(path),
		Source:   path,
		Encoding: enc,
	}, nil
}

// Read consumes r (typically stdin) as a document. Markdown cannot be
// auto-detected without a filename, so the caller decides.
func Read(r io.Reader, source string, markdown bool) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	text, enc := decodeText(data)
	return &Document{
		Text:     text,
		Markdown: markdown,
		Source:   source,
		Encoding: enc,
	}, nil
}

// IsMarkdownPath reports whether path has a Markdown extension.
func IsMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// OutputPath derives the default output path for a source: the source with
// its extension replaced by .wav. Non-file sources default to out.wav.
func OutputPath(source string) string {
	if source == "" || source == "-" {
		return "out.wav"
	}
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".wav"
}

// decodeText decodes raw file bytes, reporting which encoding was used.
// UTF-16 is checked first: its BOM makes detection unambiguous, and
// ASCII-range UTF-16 text would otherwise pass the UTF-8 check as
// NUL-riddled garbage. Latin-1 is the terminal fallback since every byte
// sequence decodes under it.
func decodeText(data []byte) (string, string) {
	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(data); err == nil {
			return string(out), "utf-16"
		}
	}

	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}

	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(out), "latin-1"
}
