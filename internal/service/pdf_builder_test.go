package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildTestPDF writes a minimal single-page PDF with the given text lines and,
// when linkURI is non-empty, one link annotation. Returns the file path.
func buildTestPDF(t *testing.T, lines []string, linkURI string) string {
	t.Helper()

	stream := textContentStream(lines, "")

	annots := ""
	if linkURI != "" {
		annots = " /Annots [6 0 R]"
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R" + annots + " >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}
	if linkURI != "" {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Annot /Subtype /Link /Rect [72 700 300 720] /Border [0 0 0] /A << /S /URI /URI (%s) >> >>",
			escapePDFString(linkURI)))
	}

	return writePDFObjects(t, objects)
}

// testPage describes one page for buildMultiPagePDF. Pages with image set
// carry a 1x1 raster image XObject drawn onto the page.
type testPage struct {
	lines []string
	image bool
}

// buildMultiPagePDF writes a PDF with one page per entry. Returns the file path.
func buildMultiPagePDF(t *testing.T, pages []testPage) string {
	t.Helper()

	// 1 catalog, 2 page tree, 3 font; then per page: page dict, contents
	// stream and, for image pages, the image XObject.
	next := 4
	pageObj := make([]int, len(pages))
	contentObj := make([]int, len(pages))
	imageObj := make([]int, len(pages))
	for i, p := range pages {
		pageObj[i] = next
		contentObj[i] = next + 1
		next += 2
		if p.image {
			imageObj[i] = next
			next++
		}
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj[i])
	}

	objects := make([]string, next-1)
	objects[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))
	objects[2] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"

	for i, p := range pages {
		resources := "<< /Font << /F1 3 0 R >>"
		draw := ""
		if p.image {
			resources += fmt.Sprintf(" /XObject << /Im1 %d 0 R >>", imageObj[i])
			draw = "q 50 0 0 50 100 100 cm /Im1 Do Q"
		}
		resources += " >>"

		stream := textContentStream(p.lines, draw)
		objects[pageObj[i]-1] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources %s /Contents %d 0 R >>",
			resources, contentObj[i])
		objects[contentObj[i]-1] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
		if p.image {
			img := "\xff\x00\x00"
			objects[imageObj[i]-1] = fmt.Sprintf(
				"<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length %d >>\nstream\n%s\nendstream",
				len(img), img)
		}
	}

	return writePDFObjects(t, objects)
}

func textContentStream(lines []string, extra string) string {
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("0 -16 Td\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapePDFString(line))
	}
	content.WriteString("ET")
	if extra != "" {
		content.WriteString("\n")
		content.WriteString(extra)
	}
	return content.String()
}

// writePDFObjects serializes numbered objects with a computed xref table.
func writePDFObjects(t *testing.T, objects []string) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefOffset)

	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	return s
}
