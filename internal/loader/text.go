package loader

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// TextLoader returns a plain text document as a single page.
type TextLoader struct{}

func (TextLoader) Load(data []byte) ([]Page, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("text document is not valid UTF-8")
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []Page{{Number: 1, Text: text}}, nil
}
