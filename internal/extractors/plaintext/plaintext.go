package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/toricodesthings/wordcloud-service/internal/extract"
	"github.com/toricodesthings/wordcloud-service/internal/types"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Extractor decodes plain UTF-8 text. Bytes are passed through unchanged
// apart from an optional leading byte-order mark.
type Extractor struct {
	maxBytes int64
}

func New(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

func (e *Extractor) Name() string { return "text" }

func (e *Extractor) Format() types.Format { return types.FormatTXT }

func (e *Extractor) MaxFileSize() int64 { return e.maxBytes }

func (e *Extractor) SupportedTypes() []string {
	return []string{"text/plain"}
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

func (e *Extractor) Extract(ctx context.Context, doc types.Document) (extract.Result, error) {
	select {
	case <-ctx.Done():
		return extract.Result{}, ctx.Err()
	default:
	}

	text, err := DecodeUTF8(doc.Data)
	if err != nil {
		return extract.Result{}, types.Decode("extract txt", err.Error(), nil)
	}

	words, chars := extract.BuildCounts(text)
	return extract.Result{
		Text:      text,
		Method:    "native",
		FileType:  e.Name(),
		MIMEType:  "text/plain",
		WordCount: words,
		CharCount: chars,
	}, nil
}

// DecodeUTF8 validates b as UTF-8 and strips a leading BOM.
func DecodeUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("invalid UTF-8 byte sequence at offset %d", invalidOffset(b))
	}
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("decode utf-8: %w", err)
	}
	return string(out), nil
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
