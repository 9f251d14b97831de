package documents

import (
	"errors"
	"fmt"
)

// ErrNoText is wrapped in a DocumentReadError when a PDF opens but none of
// its pages carries extractable text.
var ErrNoText = errors.New("document contains no extractable text")

// DocumentReadError is returned when a PDF cannot be opened or read:
// corrupt files, encrypted files we cannot decrypt, or unsupported formats.
type DocumentReadError struct {
	Page int // 0 when the document could not be opened at all
	Err  error
}

func (e *DocumentReadError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("unreadable document (page %d): %v", e.Page, e.Err)
	}
	return fmt.Sprintf("unreadable document: %v", e.Err)
}

func (e *DocumentReadError) Unwrap() error { return e.Err }

// DecodeError is returned when plain text input is not valid UTF-8.
type DecodeError struct {
	Offset int // byte offset of the first invalid sequence
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("input is not valid UTF-8 (first invalid byte at offset %d)", e.Offset)
}

// UnsupportedTypeError is returned for media types other than text and PDF.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported document type: %s", e.Type)
}
