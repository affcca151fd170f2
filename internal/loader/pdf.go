package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFLoader validates a PDF with pdfcpu and extracts page text with ledongthuc/pdf.
type PDFLoader struct {
	conf *model.Configuration
}

// NewPDFLoader uses relaxed validation, which accepts most real-world files.
func NewPDFLoader() *PDFLoader {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFLoader{conf: conf}
}

// Load returns the non-empty pages of the document.
func (l *PDFLoader) Load(data []byte) (pages []Page, err error) {
	if err := api.Validate(bytes.NewReader(data), l.conf); err != nil {
		return nil, fmt.Errorf("invalid pdf: %w", err)
	}

	// The text extractor panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf text extraction failed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
