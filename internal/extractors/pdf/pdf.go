package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/toricodesthings/wordcloud-service/internal/extract"
	"github.com/toricodesthings/wordcloud-service/internal/types"
	"github.com/tsawler/tabula/reader"
)

// pdfcpu writes a config directory under the user's home unless told not to.
var disableConfigDir sync.Once

type Extractor struct {
	maxBytes int64
}

func New(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

func (e *Extractor) Name() string { return "document/pdf" }

func (e *Extractor) Format() types.Format { return types.FormatPDF }

func (e *Extractor) MaxFileSize() int64 { return e.maxBytes }

func (e *Extractor) SupportedTypes() []string {
	return []string{"application/pdf"}
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract returns the text of every page in page order, joined by newlines.
// pdfcpu validates the file and counts pages; tabula decodes each page's
// text through its fonts' ToUnicode maps and encodings. Pages whose content
// yields no text contribute an empty string.
func (e *Extractor) Extract(ctx context.Context, doc types.Document) (extract.Result, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(doc.Data), model.NewDefaultConfiguration())
	if err != nil {
		return extract.Result{}, types.Decode("extract pdf", "not a readable PDF", err)
	}

	f, err := spool(doc.Data)
	if err != nil {
		return extract.Result{}, fmt.Errorf("spool pdf: %w", err)
	}
	defer os.Remove(f.Name())

	r, err := reader.NewReader(f)
	if err != nil {
		f.Close()
		return extract.Result{}, types.Decode("extract pdf", "not a readable PDF", err)
	}
	defer r.Close()

	pages := make([]extract.PageResult, 0, pctx.PageCount)
	texts := make([]string, 0, pctx.PageCount)
	empty := 0
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		select {
		case <-ctx.Done():
			return extract.Result{}, ctx.Err()
		default:
		}

		text := pageText(r, pageNr)
		if text == "" {
			empty++
		}
		w, _ := extract.BuildCounts(text)
		pages = append(pages, extract.PageResult{PageNumber: pageNr, Text: text, WordCount: w})
		texts = append(texts, text)
	}

	text := strings.Join(texts, "\n")
	words, chars := extract.BuildCounts(text)
	meta := map[string]string{
		"totalPages": fmt.Sprintf("%d", pctx.PageCount),
		"emptyPages": fmt.Sprintf("%d", empty),
	}
	return extract.Result{
		Text:      text,
		Method:    "text-layer",
		FileType:  e.Name(),
		MIMEType:  "application/pdf",
		Pages:     pages,
		Metadata:  meta,
		WordCount: words,
		CharCount: chars,
	}, nil
}

// pageText extracts one page (1-based). Unreadable pages yield "".
func pageText(r *reader.Reader, pageNr int) string {
	page, err := r.GetPage(pageNr - 1)
	if err != nil {
		return ""
	}
	text, err := r.ExtractText(page)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// spool writes data to a temp file for readers that need an *os.File.
// The caller removes the file.
func spool(data []byte) (*os.File, error) {
	f, err := os.CreateTemp("", "wordcloud-*.pdf")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}
	return f, nil
}
