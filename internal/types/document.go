package types

import (
	"path/filepath"
	"strings"
)

// Format is the declared type of an uploaded document.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
)

var Formats = []Format{FormatPDF, FormatDOCX, FormatTXT, FormatCSV}

var formatAliases = map[string]Format{
	"pdf":             FormatPDF,
	"application/pdf": FormatPDF,
	"docx":            FormatDOCX,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"txt":        FormatTXT,
	"text":       FormatTXT,
	"text/plain": FormatTXT,
	"csv":        FormatCSV,
	"text/csv":   FormatCSV,
}

// ParseFormat accepts a format tag, a file extension or a MIME type.
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, ".")
	if i := strings.Index(key, ";"); i > 0 {
		key = strings.TrimSpace(key[:i])
	}
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", UnsupportedFormat("parse format", s)
}

// FormatFromName guesses the format from a file name's extension.
func FormatFromName(name string) (Format, bool) {
	ext := filepath.Ext(strings.TrimSpace(name))
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return f, true
}

// Document is an uploaded file. It lives only until its text is extracted.
type Document struct {
	Format Format
	Name   string
	Data   []byte
}
