package service

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Geometry thresholds for table detection, in PDF points. Fragments on the
// same baseline (within rowTolerance) form a row; a horizontal gap wider than
// cellGap starts a new cell.
const (
	rowTolerance = 2.0
	cellGap      = 14.0
)

// textFragment is a positioned run of characters on a page.
type textFragment struct {
	X, Y float64
	S    string
}

// detectTables returns per-page serialized tables. A page contributes a table
// when at least two consecutive rows split into two or more aligned cells.
func detectTables(pdfPath string) ([]string, error) {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tables []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		fragments := pageFragments(page)
		for _, table := range tablesFromFragments(fragments) {
			tables = append(tables, serializeTable(table))
		}
	}
	return tables, nil
}

// pageFragments merges the page's character-level content into word fragments.
func pageFragments(page pdf.Page) []textFragment {
	content := page.Content()

	var fragments []textFragment
	var lastX, lastW float64

	for _, t := range content.Text {
		if n := len(fragments); n > 0 && sameRow(fragments[n-1].Y, t.Y) && t.X-(lastX+lastW) < cellGap/2 {
			fragments[n-1].S += t.S
			lastX, lastW = t.X, t.W
			continue
		}
		fragments = append(fragments, textFragment{X: t.X, Y: t.Y, S: t.S})
		lastX, lastW = t.X, t.W
	}
	return fragments
}

func sameRow(y1, y2 float64) bool {
	d := y1 - y2
	if d < 0 {
		d = -d
	}
	return d <= rowTolerance
}

// tablesFromFragments groups fragments into rows by baseline, clusters each
// row into cells by horizontal gaps, and collects runs of multi-cell rows.
func tablesFromFragments(fragments []textFragment) [][][]string {
	rows := groupRows(fragments)

	var tables [][][]string
	var current [][]string
	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, row := range rows {
		cells := clusterCells(row)
		if len(cells) >= 2 {
			current = append(current, cells)
			continue
		}
		flush()
	}
	flush()
	return tables
}

// groupRows buckets fragments by baseline and orders rows top-down,
// fragments left-to-right.
func groupRows(fragments []textFragment) [][]textFragment {
	sorted := make([]textFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sameRow(sorted[i].Y, sorted[j].Y) {
			return sorted[i].Y > sorted[j].Y // PDF origin is bottom-left
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]textFragment
	for _, frag := range sorted {
		if strings.TrimSpace(frag.S) == "" {
			continue
		}
		if len(rows) > 0 && sameRow(rows[len(rows)-1][0].Y, frag.Y) {
			rows[len(rows)-1] = append(rows[len(rows)-1], frag)
			continue
		}
		rows = append(rows, []textFragment{frag})
	}
	return rows
}

// clusterCells splits one row of fragments into cells on horizontal gaps.
func clusterCells(row []textFragment) []string {
	var cells []string
	var cell strings.Builder
	var prevEnd float64

	for i, frag := range row {
		if i > 0 && frag.X-prevEnd > cellGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		} else if i > 0 {
			cell.WriteString(" ")
		}
		cell.WriteString(frag.S)
		prevEnd = frag.X + approxWidth(frag.S)
	}
	if cell.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}
	return cells
}

// approxWidth estimates rendered width when glyph metrics are unavailable.
func approxWidth(s string) float64 {
	return float64(len(s)) * 5.0
}

// serializeTable joins cells with "|" and rows with newlines, matching the
// format the downstream model prompt expects.
func serializeTable(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, "|"))
	}
	return strings.Join(lines, "\n")
}
