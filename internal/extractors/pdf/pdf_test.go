package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/toricodesthings/wordcloud-service/internal/types"
)

// fontObjects returns the bodies of the font objects for a fixture, given
// the object number of the first one. The first object is bound to /F1.
type fontObjects func(first int) []string

func helvetica(int) []string {
	return []string{"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"}
}

// subsetType0 is a subset TrueType font behind Identity-H, as written by
// browsers and office suites: glyph ids map back to text only through the
// ToUnicode CMap. Glyph id n stands for rune n+29.
func subsetType0(first int) []string {
	cmap := strings.Join([]string{
		"/CIDInit /ProcSet findresource begin",
		"12 dict begin",
		"begincmap",
		"/CMapName /Adobe-Identity-UCS def",
		"/CMapType 2 def",
		"1 begincodespacerange",
		"<0000> <FFFF>",
		"endcodespacerange",
		"1 beginbfrange",
		"<0003> <005D> <0020>",
		"endbfrange",
		"endcmap",
		"CMapName currentdict /CMapType get pop",
		"end",
		"end",
	}, "\n")
	return []string{
		fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /ABCDEF+Arial /Encoding /Identity-H /DescendantFonts [%d 0 R] /ToUnicode %d 0 R >>", first+1, first+2),
		fmt.Sprintf("<< /Type /Font /Subtype /CIDFontType2 /BaseFont /ABCDEF+Arial /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /FontDescriptor %d 0 R /DW 556 >>", first+3),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(cmap), cmap),
		"<< /Type /FontDescriptor /FontName /ABCDEF+Arial /Flags 32 /FontBBox [-665 -210 2000 728] /ItalicAngle 0 /Ascent 905 /Descent -212 /CapHeight 716 /StemV 80 >>",
	}
}

// glyphs encodes s as two-byte glyph ids for subsetType0.
func glyphs(s string) string {
	var b strings.Builder
	b.WriteByte('<')
	for _, r := range s {
		fmt.Fprintf(&b, "%04X", r-29)
	}
	b.WriteByte('>')
	return b.String()
}

// buildPDF assembles a minimal uncompressed PDF with one content stream per
// page. An empty stream produces a page without text.
func buildPDF(fonts fontObjects, streams ...string) []byte {
	n := len(streams)
	fontObj := 3 + 2*n
	bodies := fonts(fontObj)
	last := fontObj + len(bodies) - 1

	var b strings.Builder
	offsets := make([]int, last+1)

	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, n)
	for i := range streams {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)

	for i, s := range streams {
		page, content := 3+2*i, 4+2*i
		offsets[page] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>\nendobj\n", page, content, fontObj)
		offsets[content] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", content, len(s), s)
	}

	for i, body := range bodies {
		offsets[fontObj+i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", fontObj+i, body)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", last+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= last; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", last+1, xref)
	return []byte(b.String())
}

func textStream(operand string) string {
	return "BT\n/F1 12 Tf\n72 720 Td\n" + operand + " Tj\nET"
}

func extractPDF(t *testing.T, data []byte) string {
	t.Helper()
	res, err := New(10<<20).Extract(context.Background(), types.Document{Format: types.FormatPDF, Data: data})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return res.Text
}

func TestExtractPagesInOrder(t *testing.T) {
	data := buildPDF(helvetica, textStream("(Hello World)"), "", textStream("(third page)"))

	e := New(10 << 20)
	res, err := e.Extract(context.Background(), types.Document{Format: types.FormatPDF, Data: data})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(res.Pages))
	}
	if res.Pages[1].Text != "" {
		t.Fatalf("expected empty page text, got %q", res.Pages[1].Text)
	}
	if res.Text != "Hello World\n\nthird page" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Metadata["emptyPages"] != "1" || res.Metadata["totalPages"] != "3" {
		t.Fatalf("unexpected metadata %v", res.Metadata)
	}
}

func TestExtractDecodesIdentityHFonts(t *testing.T) {
	data := buildPDF(subsetType0, textStream(glyphs("Hello World")))

	if got := extractPDF(t, data); got != "Hello World" {
		t.Fatalf("expected ToUnicode-decoded text, got %q", got)
	}
}

func TestExtractKeepsWordsAcrossLines(t *testing.T) {
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(first line) Tj\n0 -14 Td\n(second line) Tj\nET"
	got := strings.Fields(extractPDF(t, buildPDF(helvetica, stream)))

	want := []string{"first", "line", "second", "line"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("got words %q, want %q", got, want)
	}
}

func TestExtractRejectsGarbage(t *testing.T) {
	e := New(10 << 20)
	_, err := e.Extract(context.Background(), types.Document{Format: types.FormatPDF, Data: []byte("definitely not a pdf")})
	if !errors.Is(err, types.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestExtractHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := buildPDF(helvetica, textStream("(Hello)"))
	_, err := New(10<<20).Extract(ctx, types.Document{Format: types.FormatPDF, Data: data})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
