package plaintext

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/toricodesthings/wordcloud-service/internal/types"
)

func TestExtractPlainText(t *testing.T) {
	e := New(1 << 20)
	res, err := e.Extract(context.Background(), types.Document{Format: types.FormatTXT, Data: []byte("the cat sat\non the mat\r\n")})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "the cat sat\non the mat\r\n" {
		t.Fatalf("text must pass through unchanged, got %q", res.Text)
	}
	if res.WordCount != 6 {
		t.Fatalf("expected 6 words, got %d", res.WordCount)
	}
}

func TestExtractStripsBOM(t *testing.T) {
	e := New(1 << 20)
	res, err := e.Extract(context.Background(), types.Document{Format: types.FormatTXT, Data: []byte("\xef\xbb\xbfHello there")})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "Hello there" {
		t.Fatalf("expected BOM to be stripped, got %q", res.Text)
	}
}

func TestExtractRejectsInvalidUTF8(t *testing.T) {
	e := New(1 << 20)
	_, err := e.Extract(context.Background(), types.Document{Format: types.FormatTXT, Data: []byte("abc\xff\xfedef")})
	if !errors.Is(err, types.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if !strings.Contains(err.Error(), "offset 3") {
		t.Fatalf("expected offset in message, got %v", err)
	}
}

func TestExtractEmpty(t *testing.T) {
	e := New(1 << 20)
	res, err := e.Extract(context.Background(), types.Document{Format: types.FormatTXT})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "" || res.WordCount != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
