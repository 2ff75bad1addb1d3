package office

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/toricodesthings/wordcloud-service/internal/extract"
	"github.com/toricodesthings/wordcloud-service/internal/types"
)

// Decompressed size cap for a single archive entry.
const maxEntryBytes = 64 << 20

type DOCXExtractor struct {
	maxBytes int64
}

func NewDOCX(maxBytes int64) *DOCXExtractor {
	return &DOCXExtractor{maxBytes: maxBytes}
}

func (e *DOCXExtractor) Name() string         { return "document/docx" }
func (e *DOCXExtractor) Format() types.Format { return types.FormatDOCX }
func (e *DOCXExtractor) MaxFileSize() int64   { return e.maxBytes }
func (e *DOCXExtractor) SupportedTypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}
func (e *DOCXExtractor) SupportedExtensions() []string { return []string{".docx"} }

// Extract joins the text of the body's top-level paragraphs with newlines,
// in document order. Paragraphs nested in tables, text boxes or content
// controls are not part of the body paragraph sequence.
func (e *DOCXExtractor) Extract(ctx context.Context, doc types.Document) (extract.Result, error) {
	select {
	case <-ctx.Done():
		return extract.Result{}, ctx.Err()
	default:
	}

	zr, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return extract.Result{}, types.Decode("extract docx", "not a valid DOCX archive", err)
	}

	body, err := readZipFile(zr, "word/document.xml", maxEntryBytes)
	if err != nil {
		return extract.Result{}, types.Decode("extract docx", "missing or oversized word/document.xml", err)
	}

	paras, err := bodyParagraphs(body)
	if err != nil {
		return extract.Result{}, types.Decode("extract docx", "malformed word/document.xml", err)
	}

	text := strings.Join(paras, "\n")
	words, chars := extract.BuildCounts(text)
	return extract.Result{
		Text:      text,
		Method:    "native",
		FileType:  e.Name(),
		MIMEType:  e.SupportedTypes()[0],
		Metadata:  parseCoreMetadata(zr),
		WordCount: words,
		CharCount: chars,
	}, nil
}

// bodyParagraphs returns the text of every <w:p> that is a direct child of
// <w:body>.
func bodyParagraphs(b []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))

	var paras []string
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !inBody {
				if t.Name.Local == "body" {
					inBody = true
				}
				continue
			}
			if t.Name.Local == "p" {
				p, err := paragraphText(dec)
				if err != nil {
					return nil, err
				}
				paras = append(paras, p)
				continue
			}
			if err := dec.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if inBody && t.Name.Local == "body" {
				return paras, nil
			}
		}
	}
	if !inBody {
		return nil, fmt.Errorf("missing w:body")
	}
	return paras, nil
}

// paragraphText reads one <w:p> up to its end element.
func paragraphText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				text, err := readCharData(dec)
				if err != nil {
					return "", err
				}
				sb.WriteString(text)
			case "tab":
				sb.WriteByte('\t')
				depth++
			case "br", "cr":
				sb.WriteByte('\n')
				depth++
			case "pPr", "rPr", "instrText", "delText", "drawing", "pict", "AlternateContent":
				if err := dec.Skip(); err != nil {
					return "", err
				}
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return sb.String(), nil
}

// readCharData collects character data up to the end of the current element.
func readCharData(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if err := dec.Skip(); err != nil {
				return "", err
			}
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}

func readZipFile(zr *zip.Reader, name string, limit int64) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		b, err := io.ReadAll(io.LimitReader(rc, limit+1))
		if err != nil {
			return nil, err
		}
		if int64(len(b)) > limit {
			return nil, fmt.Errorf("%s exceeds %d bytes", name, limit)
		}
		return b, nil
	}
	return nil, fmt.Errorf("missing %s", name)
}

// parseCoreMetadata extracts title, author and dates from docProps/core.xml.
func parseCoreMetadata(zr *zip.Reader) map[string]string {
	b, err := readZipFile(zr, "docProps/core.xml", 1<<20)
	if err != nil {
		return nil
	}

	meta := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(b))
	var currentTag string

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			currentTag = t.Name.Local
		case xml.CharData:
			val := strings.TrimSpace(string(t))
			if val == "" {
				continue
			}
			switch currentTag {
			case "title":
				meta["title"] = val
			case "creator":
				meta["author"] = val
			case "created":
				meta["created"] = val
			case "modified":
				meta["modified"] = val
			case "subject":
				meta["subject"] = val
			}
		case xml.EndElement:
			currentTag = ""
		}
	}

	if len(meta) == 0 {
		return nil
	}
	return meta
}
