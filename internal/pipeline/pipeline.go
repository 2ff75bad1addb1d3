// Package pipeline runs one document through extraction, stopword
// filtering, frequency aggregation, layout and encoding.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/toricodesthings/wordcloud-service/internal/export"
	"github.com/toricodesthings/wordcloud-service/internal/extract"
	"github.com/toricodesthings/wordcloud-service/internal/frequency"
	"github.com/toricodesthings/wordcloud-service/internal/layout"
	"github.com/toricodesthings/wordcloud-service/internal/tokenize"
	"github.com/toricodesthings/wordcloud-service/internal/types"
)

// ErrLayoutTimeout means the caller's deadline passed while words were still
// being placed. Retrying with a longer deadline or a smaller canvas may
// succeed. A deadline that passes during extraction surfaces as a plain
// context.DeadlineExceeded.
var ErrLayoutTimeout = errors.New("layout timed out")

const previewChars = 1000

// Options is the per-invocation configuration. It is never mutated.
type Options struct {
	// Format overrides the document's declared format. Empty means use the
	// document's, or detect it from the name and content.
	Format         types.Format
	ExtraStopwords []string
	Layout         layout.Config
	ImageFormat    export.ImageFormat
	OutputFilename string
}

func DefaultOptions() Options {
	return Options{
		ExtraStopwords: []string{"the", "and", "is", "in", "to", "of"},
		Layout:         layout.DefaultConfig(),
		ImageFormat:    export.PNG,
		OutputFilename: "wordcloud.png",
	}
}

// Result is everything one run produces.
type Result struct {
	Image       []byte
	ImageFormat export.ImageFormat
	Filename    string
	// Table is the full frequency table, most frequent first.
	Table       []frequency.Entry
	Placed      []layout.PlacedWord
	Skipped     []string
	TokenCount  int
	TextPreview string
	Text        extract.Result
}

type Pipeline struct {
	registry *extract.Registry
	log      zerolog.Logger
}

func New(registry *extract.Registry, log zerolog.Logger) *Pipeline {
	return &Pipeline{registry: registry, log: log}
}

// Run renders doc under opts. Any stage failure aborts the run; no partial
// result is returned. Run is safe for concurrent use.
func (p *Pipeline) Run(ctx context.Context, doc types.Document, opts Options) (Result, error) {
	imgFormat, err := export.ParseImageFormat(string(opts.ImageFormat))
	if err != nil {
		return Result{}, err
	}
	if err := opts.Layout.Validate(); err != nil {
		return Result{}, err
	}

	text, table, err := p.analyze(ctx, doc, opts)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	img, err := layout.LayoutContext(ctx, table.table, opts.Layout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w: %w", ErrLayoutTimeout, err)
		}
		return Result{}, err
	}
	p.log.Debug().
		Str("stage", "layout").
		Int("placed", len(img.Words)).
		Int("skipped", len(img.Skipped)).
		Dur("took", time.Since(start)).
		Msg("stage done")

	start = time.Now()
	encoded, err := export.Encode(img, imgFormat)
	if err != nil {
		return Result{}, err
	}
	p.log.Debug().Str("stage", "encode").Str("format", string(imgFormat)).Int("bytes", len(encoded)).Dur("took", time.Since(start)).Msg("stage done")

	return Result{
		Image:       encoded,
		ImageFormat: imgFormat,
		Filename:    OutputName(opts.OutputFilename, imgFormat),
		Table:       table.table.Sorted(),
		Placed:      img.Words,
		Skipped:     img.Skipped,
		TokenCount:  table.tokens,
		TextPreview: extract.Preview(text.Text, previewChars),
		Text:        text,
	}, nil
}

// Analyze stops after aggregation, for callers that only want the table.
func (p *Pipeline) Analyze(ctx context.Context, doc types.Document, opts Options) (frequency.Table, extract.Result, error) {
	text, table, err := p.analyze(ctx, doc, opts)
	if err != nil {
		return frequency.Table{}, extract.Result{}, err
	}
	return table.table, text, nil
}

type counted struct {
	table  frequency.Table
	tokens int
}

func (p *Pipeline) analyze(ctx context.Context, doc types.Document, opts Options) (extract.Result, counted, error) {
	if opts.Format != "" {
		doc.Format = opts.Format
	}
	if doc.Format == "" {
		f, mime, err := p.registry.DetectFormat(doc.Data, doc.Name)
		if err != nil {
			return extract.Result{}, counted{}, err
		}
		p.log.Debug().Str("format", string(f)).Str("mime", mime).Msg("detected input format")
		doc.Format = f
	}

	start := time.Now()
	res, err := p.registry.Extract(ctx, doc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return extract.Result{}, counted{}, fmt.Errorf("extract: %w", err)
		}
		return extract.Result{}, counted{}, err
	}
	p.log.Debug().
		Str("stage", "extract").
		Str("format", string(doc.Format)).
		Str("extractor", res.FileType).
		Int("chars", res.CharCount).
		Dur("took", time.Since(start)).
		Msg("stage done")

	if err := ctx.Err(); err != nil {
		return extract.Result{}, counted{}, fmt.Errorf("extract: %w", err)
	}

	start = time.Now()
	_, tokens := tokenize.Filter(res.Text, tokenize.NewStopwordSet(opts.ExtraStopwords...))
	table := frequency.Aggregate(tokens)
	p.log.Debug().
		Str("stage", "aggregate").
		Int("tokens", len(tokens)).
		Int("distinct", table.Len()).
		Dur("took", time.Since(start)).
		Msg("stage done")

	return res, counted{table: table, tokens: len(tokens)}, nil
}

// OutputName is the download name for an image: the base name of name with
// the extension forced to match f.
func OutputName(name string, f export.ImageFormat) string {
	name = filepath.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" || name == "" {
		name = "wordcloud"
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".pdf":
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if name == "" {
		name = "wordcloud"
	}
	return name + f.Extension()
}
