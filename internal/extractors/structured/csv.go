package structured

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/toricodesthings/wordcloud-service/internal/extract"
	"github.com/toricodesthings/wordcloud-service/internal/extractors/plaintext"
	"github.com/toricodesthings/wordcloud-service/internal/types"
)

type CSVExtractor struct {
	maxBytes int64
}

func NewCSV(maxBytes int64) *CSVExtractor { return &CSVExtractor{maxBytes: maxBytes} }

func (e *CSVExtractor) Name() string         { return "structured/csv" }
func (e *CSVExtractor) Format() types.Format { return types.FormatCSV }
func (e *CSVExtractor) MaxFileSize() int64   { return e.maxBytes }
func (e *CSVExtractor) SupportedTypes() []string {
	return []string{"text/csv", "text/tab-separated-values"}
}
func (e *CSVExtractor) SupportedExtensions() []string { return []string{".csv", ".tsv"} }

// Extract flattens every cell, header row included, in row-major order into
// one space-separated string. Empty cells contribute nothing.
func (e *CSVExtractor) Extract(ctx context.Context, doc types.Document) (extract.Result, error) {
	select {
	case <-ctx.Done():
		return extract.Result{}, ctx.Err()
	default:
	}

	s, err := plaintext.DecodeUTF8(doc.Data)
	if err != nil {
		return extract.Result{}, types.Decode("extract csv", err.Error(), nil)
	}
	if strings.TrimSpace(s) == "" {
		return extract.Result{Method: "native", FileType: e.Name(), MIMEType: "text/csv"}, nil
	}

	recs, delim, err := readRecords([]byte(s))
	if err != nil {
		return extract.Result{}, types.Decode("extract csv", "malformed CSV", err)
	}

	text := flattenRecords(recs)
	w, c := extract.BuildCounts(text)
	meta := map[string]string{
		"rows":      fmt.Sprintf("%d", len(recs)),
		"columns":   fmt.Sprintf("%d", maxCols(recs)),
		"delimiter": string(delim),
	}
	return extract.Result{Text: text, Method: "native", FileType: e.Name(), MIMEType: "text/csv", Metadata: meta, WordCount: w, CharCount: c}, nil
}

// readRecords tries the common delimiters and keeps the first that yields
// more than one column. Single-column files fall back to a plain comma parse.
func readRecords(b []byte) ([][]string, rune, error) {
	for _, d := range []rune{',', '\t', ';', '|'} {
		recs, err := newReader(b, d).ReadAll()
		if err == nil && len(recs) > 0 && maxCols(recs) > 1 {
			return recs, d, nil
		}
	}

	recs, err := newReader(b, ',').ReadAll()
	if err != nil {
		return nil, ',', fmt.Errorf("unable to parse CSV/TSV: %w", err)
	}
	return recs, ',', nil
}

// newReader accepts ragged rows and stray quotes inside unquoted fields
// (27" screen), as spreadsheet exports commonly contain both.
func newReader(b []byte, comma rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

func maxCols(recs [][]string) int {
	m := 0
	for _, row := range recs {
		if len(row) > m {
			m = len(row)
		}
	}
	return m
}

func flattenRecords(recs [][]string) string {
	var sb strings.Builder
	for _, row := range recs {
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(cell)
		}
	}
	return sb.String()
}
