package documents

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageSeparator is placed between the text of consecutive pages, the same
// form feed pdftotext emits.
const PageSeparator = "\n\f\n"

// ExtractPDFText reads a PDF and returns the text of every page in page order.
// Any failure to open or read the document is reported as *DocumentReadError;
// a partially read document is never returned.
func ExtractPDFText(data []byte) (string, error) {
	pages, err := ExtractPDFPages(data)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, PageSeparator), nil
}

// ExtractPDFPages returns the extracted text of each page, indexed from page 1
// at position 0. pdfcpu validates the document and supplies the page count;
// the text itself is decoded with each font's encoding and ToUnicode map.
// A document without any text at all (a scan, for instance) is an error.
func ExtractPDFPages(data []byte) (pages []string, err error) {
	// both parsers can panic on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &DocumentReadError{Err: fmt.Errorf("pdf parser panic: %v", r)}
		}
	}()

	if len(data) == 0 {
		return nil, &DocumentReadError{Err: errors.New("empty document")}
	}

	conf := model.NewDefaultConfiguration()
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &DocumentReadError{Err: err}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &DocumentReadError{Err: err}
	}
	pageCount := pdfContext.PageCount
	if n := reader.NumPage(); n != pageCount {
		return nil, &DocumentReadError{Err: fmt.Errorf("page tree lists %d pages, expected %d", n, pageCount)}
	}

	pages = make([]string, 0, pageCount)
	hasText := false
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			return nil, &DocumentReadError{Page: pageNum, Err: errors.New("page missing from page tree")}
		}
		text, err := extractPageText(page)
		if err != nil {
			return nil, &DocumentReadError{Page: pageNum, Err: err}
		}
		if text != "" {
			hasText = true
		}
		pages = append(pages, text)
	}
	if !hasText {
		return nil, &DocumentReadError{Err: ErrNoText}
	}
	return pages, nil
}
