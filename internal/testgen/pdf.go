package testgen

import (
	"bytes"
	"fmt"
	"strconv"
	"testing"
)

// GeneratePDF writes a minimal, well-formed PDF with blank pages.
func GeneratePDF(t *testing.T, dir, filename string, opts PDFOptions) string {
	t.Helper()
	return WriteFile(t, dir, filename, PDFBytes(opts))
}

// PDFBytes builds the PDF described by opts. Page objects start at 3; the
// catalog is object 1 and the page tree object 2.
func PDFBytes(opts PDFOptions) []byte {
	pages := opts.Pages
	if pages <= 0 {
		pages = 1
	}
	width, height := opts.Width, opts.Height
	if width == 0 && height == 0 {
		width, height = 612, 792
	}

	objects := make([]string, 0, pages+2)
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids.WriteString(" ")
		}
		fmt.Fprintf(&kids, "%d 0 R", i+3)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), pages))

	box := fmt.Sprintf("[0 0 %s %s]", formatPoints(width), formatPoints(height))
	for i := 0; i < pages; i++ {
		objects = append(objects, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox %s /Resources << >> >>", box))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
