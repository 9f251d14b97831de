package documents

import (
	"unicode/utf8"

	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/models"
)

// ExtractText turns a raw document into plain text according to its media
// type. An empty type is resolved with DetectDocumentType first.
func ExtractText(input models.RawInput, log logger.Logger) (string, error) {
	docType := input.Type
	if docType == "" {
		docType = DetectDocumentType(input.Data)
		log.Debug("Detected document type: %s", docType)
	}

	switch docType {
	case models.MediaTypeText:
		return DecodeText(input.Data)
	case models.MediaTypePDF:
		text, err := ExtractPDFText(input.Data)
		if err != nil {
			log.Error("Failed to read PDF: %v", err)
			return "", err
		}
		log.Info("Extracted %d characters of text from PDF", len(text))
		return text, nil
	default:
		log.Error("Unsupported document type: %s", docType)
		return "", &UnsupportedTypeError{Type: string(docType)}
	}
}

// DecodeText validates that data is UTF-8 and returns it as a string.
// A leading byte order mark is dropped.
func DecodeText(data []byte) (string, error) {
	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data), nil
	}

	offset := 0
	for offset < len(data) {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		offset += size
	}
	return "", &DecodeError{Offset: offset}
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
