package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/toricodesthings/wordcloud-service/internal/types"
)

type stubExtractor struct {
	name   string
	format types.Format
	mts    []string
	exts   []string
	max    int64
	text   string
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, doc types.Document) (Result, error) {
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{Text: s.text, Method: "native"}, nil
}
func (s *stubExtractor) Format() types.Format          { return s.format }
func (s *stubExtractor) SupportedTypes() []string      { return s.mts }
func (s *stubExtractor) SupportedExtensions() []string { return s.exts }
func (s *stubExtractor) Name() string                  { return s.name }
func (s *stubExtractor) MaxFileSize() int64            { return s.max }

func newStubRegistry() *Registry {
	r := NewRegistry()
	r.Register(&stubExtractor{name: "text", format: types.FormatTXT, mts: []string{"text/plain"}, exts: []string{".txt"}, text: "hello world"})
	r.Register(&stubExtractor{name: "structured/csv", format: types.FormatCSV, mts: []string{"text/csv"}, exts: []string{".csv"}})
	r.Register(&stubExtractor{name: "document/pdf", format: types.FormatPDF, mts: []string{"application/pdf"}, exts: []string{".pdf"}, max: 8})
	return r
}

func TestResolvePrefersExtension(t *testing.T) {
	r := newStubRegistry()

	e, err := r.ResolveMIME("text/plain", ".csv")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if e.Name() != "structured/csv" {
		t.Fatalf("expected csv extractor, got %q", e.Name())
	}
}

func TestResolveMatchesPlainTextWithParameters(t *testing.T) {
	r := newStubRegistry()

	e, err := r.ResolveMIME("text/plain; charset=utf-8", "")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if e.Format() != types.FormatTXT {
		t.Fatalf("expected txt extractor, got %q", e.Format())
	}
}

func TestResolveRejectsOtherTextTypes(t *testing.T) {
	r := newStubRegistry()

	for _, mt := range []string{"text/html; charset=utf-8", "text/rtf", "text/x-log"} {
		if _, err := r.ResolveMIME(mt, ""); !errors.Is(err, types.ErrUnsupportedFormat) {
			t.Fatalf("%s: expected unsupported format, got %v", mt, err)
		}
	}
}

func TestResolveUnknownIsUnsupported(t *testing.T) {
	r := newStubRegistry()

	if _, err := r.ResolveMIME("image/png", ".png"); !errors.Is(err, types.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if _, err := r.Resolve(types.FormatDOCX); !errors.Is(err, types.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format for unregistered docx, got %v", err)
	}
}

func TestRegistryExtractFillsCounts(t *testing.T) {
	r := newStubRegistry()

	res, err := r.Extract(context.Background(), types.Document{Format: types.FormatTXT, Data: []byte("hello world")})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.FileType != "text" {
		t.Fatalf("expected fileType=text, got %q", res.FileType)
	}
	if res.WordCount != 2 || res.CharCount != 11 {
		t.Fatalf("unexpected counts words=%d chars=%d", res.WordCount, res.CharCount)
	}
}

func TestRegistryExtractEnforcesSizeLimit(t *testing.T) {
	r := newStubRegistry()

	_, err := r.Extract(context.Background(), types.Document{Format: types.FormatPDF, Data: []byte("0123456789")})
	if !errors.Is(err, types.ErrDecode) {
		t.Fatalf("expected decode error for oversized file, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected limit message, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	r := newStubRegistry()

	f, mt, err := r.DetectFormat([]byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), "upload.bin")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if f != types.FormatPDF || mt != "application/pdf" {
		t.Fatalf("expected pdf, got format=%q mime=%q", f, mt)
	}

	f, _, err = r.DetectFormat([]byte("a,b\n1,2\n"), "table.csv")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if f != types.FormatCSV {
		t.Fatalf("expected csv by extension, got %q", f)
	}

	f, _, err = r.DetectFormat([]byte("just some words"), "")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if f != types.FormatTXT {
		t.Fatalf("expected txt, got %q", f)
	}

	rejected := []struct {
		name string
		data string
	}{
		{"page.html", "<!DOCTYPE html><html><body><p>cat sat</p></body></html>"},
		{"notes.rtf", "{\\rtf1\\ansi cat sat}"},
		{"", "<html><body>cat sat</body></html>"},
	}
	for _, tt := range rejected {
		f, mt, err := r.DetectFormat([]byte(tt.data), tt.name)
		if !errors.Is(err, types.ErrUnsupportedFormat) {
			t.Fatalf("%q: expected unsupported format, got format=%q mime=%q err=%v", tt.name, f, mt, err)
		}
	}
}

func TestReadLimited(t *testing.T) {
	if _, err := ReadLimited(strings.NewReader("abcdef"), 4); err == nil {
		t.Fatalf("expected limit error")
	}
	b, err := ReadLimited(strings.NewReader("abc"), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "abc" {
		t.Fatalf("expected abc, got %q", b)
	}
}

func TestBuildCountsAndPreview(t *testing.T) {
	w, c := BuildCounts("héllo  wörld\n")
	if w != 2 || c != 13 {
		t.Fatalf("unexpected counts words=%d chars=%d", w, c)
	}
	if got := Preview("héllo wörld", 4); got != "héll" {
		t.Fatalf("unexpected preview %q", got)
	}
	if got := Preview("abc", 10); got != "abc" {
		t.Fatalf("unexpected preview %q", got)
	}
}
