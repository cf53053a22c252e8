package providers

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Magic prefixes for the archive formats sources wrap subtitles in.
var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte("PK\x03\x04")
	rarMagic  = []byte("Rar!\x1a\x07")
)

// ErrUnsupportedArchive marks payloads the engine cannot safely unpack (rar
// and friends). Callers turn it into a manual-extraction outcome rather than
// a hard failure.
var ErrUnsupportedArchive = errors.New("unsupported archive format, manual extraction required")

var subtitleExtensions = map[string]bool{
	".srt": true,
	".ass": true,
	".ssa": true,
	".sub": true,
	".vtt": true,
}

// IsSubtitleFileName reports whether name carries a known subtitle extension.
func IsSubtitleFileName(name string) bool {
	return subtitleExtensions[strings.ToLower(filepath.Ext(name))]
}

// FormatFromFileName maps a file name to a candidate format string.
func FormatFromFileName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	return strings.TrimPrefix(ext, ".")
}

// UnwrapPayload normalizes a raw provider payload into plain subtitle text:
// gzip frames are sniffed by magic bytes and decompressed, zip archives yield
// their first member with a subtitle extension, and rar archives return
// ErrUnsupportedArchive. Plain text passes through untouched. The returned
// name is the member name for archives, empty otherwise.
func UnwrapPayload(data []byte) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(data, rarMagic):
		return nil, "", ErrUnsupportedArchive
	case bytes.HasPrefix(data, gzipMagic):
		unpacked, err := gunzip(data)
		if err != nil {
			return nil, "", fmt.Errorf("gunzip payload: %w", err)
		}
		// A gzip frame can wrap another container.
		if bytes.HasPrefix(unpacked, zipMagic) {
			return unzipFirstSubtitle(unpacked)
		}
		return unpacked, "", nil
	case bytes.HasPrefix(data, zipMagic):
		return unzipFirstSubtitle(data)
	default:
		return data, "", nil
	}
}

func gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(io.LimitReader(reader, maxResponseBytes))
}

func unzipFirstSubtitle(data []byte) ([]byte, string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", fmt.Errorf("open zip: %w", err)
	}
	for _, member := range archive.File {
		if member.FileInfo().IsDir() || !IsSubtitleFileName(member.Name) {
			continue
		}
		file, err := member.Open()
		if err != nil {
			return nil, "", fmt.Errorf("open zip member %s: %w", member.Name, err)
		}
		contents, err := io.ReadAll(io.LimitReader(file, maxResponseBytes))
		file.Close()
		if err != nil {
			return nil, "", fmt.Errorf("read zip member %s: %w", member.Name, err)
		}
		return contents, filepath.Base(member.Name), nil
	}
	return nil, "", errors.New("zip archive contains no subtitle file")
}

// ReencodeToUTF8 converts bytes from a provider's native encoding to UTF-8.
// Conversion is best effort: unknown encodings, already-valid UTF-8, and
// decode failures all return the original bytes. A subtitle with a few mangled
// accents beats no subtitle.
func ReencodeToUTF8(data []byte, sourceEncoding string) []byte {
	if len(data) == 0 || utf8.Valid(data) {
		return data
	}
	switch strings.ToLower(strings.TrimSpace(sourceEncoding)) {
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		converted, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return data
		}
		return converted
	case "windows-1252", "cp1252":
		converted, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return data
		}
		return converted
	default:
		return data
	}
}
