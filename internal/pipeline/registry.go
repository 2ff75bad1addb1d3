package pipeline

import (
	"github.com/toricodesthings/wordcloud-service/internal/extract"
	officeextractor "github.com/toricodesthings/wordcloud-service/internal/extractors/office"
	pdfextractor "github.com/toricodesthings/wordcloud-service/internal/extractors/pdf"
	plaintextextractor "github.com/toricodesthings/wordcloud-service/internal/extractors/plaintext"
	structuredextractor "github.com/toricodesthings/wordcloud-service/internal/extractors/structured"
)

// Limits caps the input size per extractor. Zero disables a cap.
type Limits struct {
	MaxPDFBytes  int64
	MaxDOCXBytes int64
	MaxTextBytes int64
}

func DefaultLimits() Limits {
	return Limits{
		MaxPDFBytes:  200 << 20,
		MaxDOCXBytes: 100 << 20,
		MaxTextBytes: 50 << 20,
	}
}

// NewRegistry registers the extractor for every supported input format.
func NewRegistry(l Limits) *extract.Registry {
	reg := extract.NewRegistry()
	reg.Register(pdfextractor.New(l.MaxPDFBytes))
	reg.Register(officeextractor.NewDOCX(l.MaxDOCXBytes))
	reg.Register(plaintextextractor.New(l.MaxTextBytes))
	reg.Register(structuredextractor.NewCSV(l.MaxTextBytes))
	return reg
}
