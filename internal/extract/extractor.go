// Package extract loads documents into per-page text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Extractor loads document files as ordered pages.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot) has a dedicated loader.
func Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".xlsx", ".pptx", ".txt", ".md", ".rst":
		return true
	}
	return false
}

// Extract reads the file at path and returns its pages in document order.
// PDF pages and PPTX slides are numbered from 0; XLSX yields one page per sheet;
// DOCX and plain text yield a single page 0. Failures wrap models.ErrLoad.
func (e *Extractor) Extract(path string) ([]models.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", models.ErrLoad, path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(path, content, ext)
}

// ExtractBytes splits content into pages according to ext (e.g. ".pdf").
// sourcePath is recorded on every page.
func (e *Extractor) ExtractBytes(sourcePath string, content []byte, ext string) ([]models.Page, error) {
	var (
		texts []string
		err   error
	)
	switch ext {
	case ".pdf":
		texts, err = extractPDF(content)
	case ".docx":
		texts, err = extractDOCX(content)
	case ".xlsx":
		texts, err = extractExcel(content)
	case ".pptx":
		texts, err = extractPPTX(content)
	default:
		texts, err = extractPlain(content)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrLoad, sourcePath, err)
	}
	pages := make([]models.Page, len(texts))
	for i, text := range texts {
		pages[i] = models.Page{SourcePath: sourcePath, Number: i, Text: text}
	}
	return pages, nil
}
