// Package pdftext pulls the plain text out of an uploaded PDF, page by page.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadablePDF wraps every failure to read a document or one of its pages
var ErrUnreadablePDF = errors.New("unable to read PDF")

// IsPDFFileName reports whether name carries a .pdf extension, in any case.
func IsPDFFileName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// ExtractBytes is Extract over an in-memory document.
func ExtractBytes(content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty content", ErrUnreadablePDF)
	}
	return Extract(bytes.NewReader(content), int64(len(content)))
}

// Extract returns the text of every page, in page order, one page per line
// block. Rows of a table may continue across the page break.
func Extract(r io.ReaderAt, size int64) (text string, err error) {
	// the pdf package panics on some malformed streams
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadablePDF, p)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrUnreadablePDF, i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
