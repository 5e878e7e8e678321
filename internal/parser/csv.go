package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docreel/internal/doctree"
)

// CSVParser renders a CSV file as a table, one section per batch of rows.
type CSVParser struct{}

const csvRowsPerSection = 40

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	widths := columnWidths(records)
	header := formatRow(records[0], widths)
	rule := strings.Repeat("-", len(header))

	rows := records[1:]
	if len(rows) == 0 {
		tree.Children = []*doctree.DocNode{{Text: header + "\n" + rule}}
		return tree, nil
	}
	for i := 0; i < len(rows); i += csvRowsPerSection {
		end := min(i+csvRowsPerSection, len(rows))
		var text strings.Builder
		text.WriteString(header + "\n" + rule)
		for _, row := range rows[i:end] {
			text.WriteString("\n" + formatRow(row, widths))
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Text:  text.String(),
		})
	}
	return tree, nil
}

// columnWidths sizes each column to its widest cell, capped so one long
// cell cannot push the others off the page.
func columnWidths(records [][]string) []int {
	const maxWidth = 24
	var widths []int
	for _, row := range records {
		for j, cell := range row {
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], min(len([]rune(cell)), maxWidth))
		}
	}
	return widths
}

func formatRow(row []string, widths []int) string {
	cells := make([]string, len(row))
	for j, cell := range row {
		rs := []rune(cell)
		if len(rs) > widths[j] {
			rs = rs[:widths[j]]
		}
		cells[j] = string(rs) + strings.Repeat(" ", widths[j]-len(rs))
	}
	return strings.TrimRight(strings.Join(cells, " | "), " ")
}
