// Package extract reads plain text out of uploaded resume documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyDocument   = errors.New("document contains no text")
)

// AllowedExtensions lists the upload extensions accepted for resumes
var AllowedExtensions = []string{".pdf", ".docx", ".txt"}

var (
	xmlTag         = regexp.MustCompile(`<[^>]+>`)
	unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_.\-]+`)
)

// AllowedFile reports whether the filename has a supported extension
func AllowedFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SecureFilename strips directories and anything outside [A-Za-z0-9_.-]
func SecureFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	name := filepath.Base(filename)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilename.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" || name == "." {
		return "upload"
	}
	return name
}

// Text extracts the text of a .pdf, .docx or .txt document
func Text(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		text = decodePlain(data)
	case ".pdf":
		text, err = pdfText(data)
	case ".docx":
		text, err = docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func decodePlain(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", "\t")
	content = strings.ReplaceAll(content, "<w:br/>", "\n")
	content = xmlTag.ReplaceAllString(content, "")

	return html.UnescapeString(content), nil
}
