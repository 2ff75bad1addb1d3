package extract

import (
	"context"

	"github.com/toricodesthings/wordcloud-service/internal/types"
)

// Extractor is implemented by every document format handler.
type Extractor interface {
	Extract(ctx context.Context, doc types.Document) (Result, error)
	Format() types.Format
	SupportedTypes() []string
	SupportedExtensions() []string
	Name() string
	MaxFileSize() int64
}
