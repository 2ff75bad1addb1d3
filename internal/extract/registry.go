package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/toricodesthings/wordcloud-service/internal/types"
)

type Registry struct {
	byFormat    map[types.Format]Extractor
	byMIME      map[string]Extractor
	byExtension map[string]Extractor
	extractors  []Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		byFormat:    make(map[types.Format]Extractor),
		byMIME:      make(map[string]Extractor),
		byExtension: make(map[string]Extractor),
		extractors:  make([]Extractor, 0),
	}
}

func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
	r.byFormat[e.Format()] = e
	for _, mt := range e.SupportedTypes() {
		key := strings.ToLower(strings.TrimSpace(mt))
		if key != "" {
			r.byMIME[key] = e
		}
	}
	for _, ext := range e.SupportedExtensions() {
		key := strings.ToLower(strings.TrimSpace(ext))
		if key != "" {
			r.byExtension[key] = e
		}
	}
}

// Formats lists the formats with a registered extractor, in registration order.
func (r *Registry) Formats() []types.Format {
	out := make([]types.Format, 0, len(r.extractors))
	for _, e := range r.extractors {
		out = append(out, e.Format())
	}
	return out
}

// Resolve returns the extractor for a declared format tag.
func (r *Registry) Resolve(format types.Format) (Extractor, error) {
	if e, ok := r.byFormat[format]; ok {
		return e, nil
	}
	return nil, types.UnsupportedFormat("resolve extractor", string(format))
}

// ResolveMIME picks an extractor from a sniffed MIME type and file extension.
// The extension wins when both are known. Only registered MIME types match:
// other text/* content such as HTML or RTF is unsupported, not plain text.
func (r *Registry) ResolveMIME(mimeType, extension string) (Extractor, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	ext := strings.ToLower(strings.TrimSpace(extension))

	if e, ok := r.byExtension[ext]; ok {
		return e, nil
	}

	if e, ok := r.byMIME[mt]; ok {
		return e, nil
	}

	if i := strings.Index(mt, ";"); i > 0 {
		if e, ok := r.byMIME[strings.TrimSpace(mt[:i])]; ok {
			return e, nil
		}
	}

	return nil, types.UnsupportedFormat("resolve extractor", fmt.Sprintf("mime=%s extension=%s", mimeType, extension))
}

// Extract dispatches doc to the extractor registered for its format.
func (r *Registry) Extract(ctx context.Context, doc types.Document) (Result, error) {
	e, err := r.Resolve(doc.Format)
	if err != nil {
		return Result{}, err
	}

	if max := e.MaxFileSize(); max > 0 && int64(len(doc.Data)) > max {
		return Result{}, types.Decode("extract "+string(doc.Format),
			fmt.Sprintf("file exceeds %s limit (%dMB)", e.Name(), max/(1<<20)), nil)
	}

	res, err := e.Extract(ctx, doc)
	if err != nil {
		return Result{}, err
	}
	if res.FileType == "" {
		res.FileType = e.Name()
	}
	if res.CharCount == 0 && res.Text != "" {
		res.WordCount, res.CharCount = BuildCounts(res.Text)
	}
	return res, nil
}
