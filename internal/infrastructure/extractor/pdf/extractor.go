// Package pdf extracts text and table-shaped content from tourism offer
// PDFs.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// tableRowPattern matches lines that look like a pipe- or tab-delimited
// table row: at least two separated cells.
var tableRowPattern = regexp.MustCompile(`^\s*\S+(\s{2,}|\t|\|)\S+`)

func (e *Extractor) Extract(_ context.Context, filename string, body []byte) ([]ports.PDFPage, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filename, err)
	}

	numPages := reader.NumPage()
	pages := make([]ports.PDFPage, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, filename, err)
		}
		body, tables := splitTables(text)
		pages = append(pages, ports.PDFPage{
			Number: i,
			Text:   body,
			Tables: tables,
		})
	}
	return pages, nil
}

// splitTables pulls out contiguous runs of table-shaped lines into their
// own serialized rows, leaving the remaining prose in body.
func splitTables(text string) (body string, tables [][]string) {
	lines := strings.Split(text, "\n")
	var prose []string
	var currentTable []string

	flushTable := func() {
		if len(currentTable) >= 2 {
			tables = append(tables, append([]string(nil), currentTable...))
		} else {
			prose = append(prose, currentTable...)
		}
		currentTable = nil
	}

	for _, line := range lines {
		if tableRowPattern.MatchString(line) {
			currentTable = append(currentTable, strings.TrimSpace(line))
			continue
		}
		flushTable()
		prose = append(prose, line)
	}
	flushTable()

	return strings.Join(prose, "\n"), tables
}
