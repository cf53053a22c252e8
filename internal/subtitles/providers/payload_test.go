package providers

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func gzipBytes(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(text)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zipBytes(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, text := range members {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(text)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUnwrapPayloadPlainText(t *testing.T) {
	text := []byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n")
	got, name, err := UnwrapPayload(text)
	if err != nil {
		t.Fatalf("UnwrapPayload: %v", err)
	}
	if name != "" {
		t.Errorf("member name = %q, want empty", name)
	}
	if !bytes.Equal(got, text) {
		t.Error("plain text was altered")
	}
}

func TestUnwrapPayloadGzip(t *testing.T) {
	got, _, err := UnwrapPayload(gzipBytes(t, "subtitle body"))
	if err != nil {
		t.Fatalf("UnwrapPayload: %v", err)
	}
	if string(got) != "subtitle body" {
		t.Errorf("decompressed = %q", got)
	}
}

func TestUnwrapPayloadZipPicksSubtitleMember(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"readme.txt":  "ignore me",
		"episode.srt": "the subtitle",
	})
	got, name, err := UnwrapPayload(data)
	if err != nil {
		t.Fatalf("UnwrapPayload: %v", err)
	}
	if name != "episode.srt" {
		t.Errorf("member name = %q, want episode.srt", name)
	}
	if string(got) != "the subtitle" {
		t.Errorf("member body = %q", got)
	}
}

func TestUnwrapPayloadRar(t *testing.T) {
	data := append([]byte("Rar!\x1a\x07\x00"), []byte("opaque")...)
	if _, _, err := UnwrapPayload(data); !errors.Is(err, ErrUnsupportedArchive) {
		t.Fatalf("err = %v, want ErrUnsupportedArchive", err)
	}
}

func TestReencodeToUTF8Latin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("café"))
	if err != nil {
		t.Fatal(err)
	}
	got := ReencodeToUTF8(encoded, "latin1")
	if string(got) != "café" {
		t.Errorf("reencoded = %q, want café", got)
	}
}

func TestReencodeToUTF8LeavesValidInput(t *testing.T) {
	text := []byte("already valid ütf-8")
	if got := ReencodeToUTF8(text, "latin1"); !bytes.Equal(got, text) {
		t.Errorf("valid UTF-8 was rewritten to %q", got)
	}
}

func TestFormatFromFileName(t *testing.T) {
	cases := map[string]string{
		"sub.SRT":    "srt",
		"style.ass":  "ass",
		"noext":      "",
		"a.b.c.vtt":  "vtt",
	}
	for name, want := range cases {
		if got := FormatFromFileName(name); got != want {
			t.Errorf("FormatFromFileName(%q) = %q, want %q", name, got, want)
		}
	}
}
