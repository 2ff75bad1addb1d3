package extract

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/toricodesthings/wordcloud-service/internal/types"
)

// ReadLimited reads body fully, failing once more than maxBytes arrive.
func ReadLimited(body io.Reader, maxBytes int64) ([]byte, error) {
	lr := &io.LimitedReader{R: body, N: maxBytes + 1}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if int64(len(b)) > maxBytes {
		return nil, fmt.Errorf("file exceeds %dMB limit", maxBytes/(1<<20))
	}
	return b, nil
}

// SniffMIMEType inspects content; it never looks at the file name.
func SniffMIMEType(data []byte) string {
	if m := mimetype.Detect(data); m != nil {
		return strings.ToLower(strings.TrimSpace(m.String()))
	}
	if len(data) == 0 {
		return ""
	}
	n := len(data)
	if n > 512 {
		n = 512
	}
	return strings.ToLower(strings.TrimSpace(http.DetectContentType(data[:n])))
}

// DetectFormat resolves the format of an upload whose caller did not declare
// one. A recognised extension is trusted over sniffed content; a generic zip
// or text sniff is refined by the extension when possible.
func (r *Registry) DetectFormat(data []byte, name string) (types.Format, string, error) {
	mt := SniffMIMEType(data)
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))

	e, err := r.ResolveMIME(mt, ext)
	if err != nil {
		return "", mt, err
	}
	return e.Format(), mt, nil
}
