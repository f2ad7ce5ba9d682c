// Package pdftext reads the embedded text layer of PDFs without external binaries.
package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Row is one visual line of a page, cells in left-to-right order.
type Row struct {
	Page  int
	Cells []string
}

// Text returns the text layer of the file at path: cells joined by spaces, rows and pages by "\n".
func Text(path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	rows, pages, err := readRows(data)
	if err != nil {
		return "", 0, err
	}
	return Join(rows), pages, nil
}

// readRows groups the text of every page by row. Malformed PDFs are reported as errors.
func readRows(data []byte) (rows []Row, pages int, err error) {
	defer func() {
		// the parser panics on some malformed cross-reference tables
		if r := recover(); r != nil {
			rows, pages, err = nil, 0, fmt.Errorf("pdftext: malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("pdftext: %w", err)
	}

	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageRows, err := page.GetTextByRow()
		if err != nil {
			return nil, 0, fmt.Errorf("pdftext: page %d: %w", i, err)
		}
		for _, pr := range pageRows {
			row := Row{Page: i}
			for _, word := range pr.Content {
				if s := strings.TrimSpace(word.S); s != "" {
					row.Cells = append(row.Cells, s)
				}
			}
			if len(row.Cells) > 0 {
				rows = append(rows, row)
			}
		}
	}
	return rows, pages, nil
}

// Join flattens rows into text.
func Join(rows []Row) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r.Cells, " ")
	}
	return strings.Join(lines, "\n")
}
