package extract

import "unicode"

// Result is the uniform output of every extractor. Text is the only field
// the rest of the pipeline consumes; the others are informational.
type Result struct {
	Text      string            `json:"-"`
	Method    string            `json:"method"`
	FileType  string            `json:"fileType"`
	MIMEType  string            `json:"mimeType,omitempty"`
	Pages     []PageResult      `json:"pages,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	WordCount int               `json:"wordCount"`
	CharCount int               `json:"charCount"`
}

type PageResult struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"-"`
	WordCount  int    `json:"wordCount"`
}

func BuildCounts(text string) (wordCount int, charCount int) {
	inWord := false
	for _, r := range text {
		charCount++
		if unicode.IsSpace(r) {
			if inWord {
				wordCount++
				inWord = false
			}
			continue
		}
		inWord = true
	}
	if inWord {
		wordCount++
	}
	return
}

// Preview returns at most max runes of text.
func Preview(text string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}
