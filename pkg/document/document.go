// Package document loads uploaded document payloads into normalized text
// ready for chunking. Documents are transient: they exist only for the
// duration of an ingestion.
package document

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrParse is returned when an uploaded payload cannot be read as text.
var ErrParse = errors.New("unreadable document payload")

// DefaultMaxBytes bounds the size of a single uploaded document.
const DefaultMaxBytes = 32 << 20 // 32 MiB

// Document is normalized text plus the identifier of its source upload.
type Document struct {
	// Source is the caller-visible name of the upload (e.g. the filename).
	Source string

	// Text is the normalized document content.
	Text string
}

// Load validates and normalizes a raw payload.
//
// Normalization is deliberately minimal and stable so that chunking stays
// deterministic: CRLF and bare CR line endings become LF, and a UTF-8 BOM
// is stripped. Nothing else is rewritten.
func Load(source string, payload []byte) (*Document, error) {
	if len(payload) == 0 {
		return &Document{Source: source}, nil
	}
	if len(payload) > DefaultMaxBytes {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrParse, DefaultMaxBytes)
	}
	if !utf8.Valid(payload) {
		return nil, fmt.Errorf("%w: not valid UTF-8 text", ErrParse)
	}

	text := string(payload)
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return &Document{Source: source, Text: text}, nil
}
