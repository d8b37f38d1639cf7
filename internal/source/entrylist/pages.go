package entrylist

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageSource yields the text fragments of each page of a document, in
// reading order.
type PageSource interface {
	Pages(path string) ([][]string, error)
}

// PDFPages reads fragments from a PDF file. Each fragment is one positioned
// text run; runs are ordered row by row.
type PDFPages struct{}

// Pages implements PageSource.
func (PDFPages) Pages(path string) ([][]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	pages := make([][]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read page %d of %s: %w", i, path, err)
		}
		var frags []string
		for _, row := range rows {
			for _, word := range row.Content {
				if s := strings.TrimSpace(word.S); s != "" {
					frags = append(frags, s)
				}
			}
		}
		pages = append(pages, frags)
	}
	return pages, nil
}
