package documents

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// testPDF assembles a PDF from object bodies. Object 1 is the catalog and
// object 2 the page tree; everything else is numbered in the order added.
type testPDF struct {
	objs []string
	kids []int
}

func newTestPDF() *testPDF {
	b := &testPDF{}
	b.add("<< /Type /Catalog /Pages 2 0 R >>")
	b.add("") // page tree, filled in by bytes
	return b
}

func (b *testPDF) add(body string) int {
	b.objs = append(b.objs, body)
	return len(b.objs)
}

func (b *testPDF) stream(dict, content string) int {
	return b.add(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(content), content))
}

func (b *testPDF) helvetica() int {
	return b.add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
}

// identityFont adds a two-byte Type0 font. cmap is the body of its ToUnicode
// stream; an empty cmap leaves the font without one.
func (b *testPDF) identityFont(cmap string) int {
	desc := b.add("<< /Type /FontDescriptor /FontName /AAAAAA+Arial /Flags 32 /FontBBox [-665 -325 2000 1040] /ItalicAngle 0 /Ascent 905 /Descent -212 /CapHeight 716 /StemV 80 >>")
	cid := b.add(fmt.Sprintf("<< /Type /Font /Subtype /CIDFontType2 /BaseFont /AAAAAA+Arial /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /FontDescriptor %d 0 R /DW 1000 /CIDToGIDMap /Identity >>", desc))
	toUnicode := ""
	if cmap != "" {
		toUnicode = fmt.Sprintf(" /ToUnicode %d 0 R", b.stream("", cmap))
	}
	return b.add(fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /AAAAAA+Arial /Encoding /Identity-H /DescendantFonts [%d 0 R]%s >>", cid, toUnicode))
}

func (b *testPDF) page(resources, content string) {
	contentNum := b.stream("", content)
	b.kids = append(b.kids, b.add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources %s /Contents %d 0 R >>", resources, contentNum)))
}

func (b *testPDF) bytes() []byte {
	kids := make([]string, len(b.kids))
	for i, k := range b.kids {
		kids[i] = fmt.Sprintf("%d 0 R", k)
	}
	b.objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(b.objs))
	for i, body := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)
	return buf.Bytes()
}

func helveticaResources(font int) string {
	return fmt.Sprintf("<< /Font << /F1 %d 0 R >> >>", font)
}

// buildTestPDF writes a minimal PDF with one Helvetica text line per page.
func buildTestPDF(pageTexts []string) []byte {
	b := newTestPDF()
	font := b.helvetica()
	for _, text := range pageTexts {
		b.page(helveticaResources(font), fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text))
	}
	return b.bytes()
}

// onePagePDF writes a single Helvetica page with the given content stream.
func onePagePDF(content string) []byte {
	b := newTestPDF()
	b.page(helveticaResources(b.helvetica()), content)
	return b.bytes()
}

// helloCMap maps the two-byte glyph codes of a font subset to "Helo".
const helloCMap = `begincmap
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
4 beginbfchar
<002B> <0048>
<0048> <0065>
<004F> <006C>
<0052> <006F>
endbfchar
endcmap`

func TestExtractPDFText_PageOrder(t *testing.T) {
	pdf := buildTestPDF([]string{"First page text", "Second page text", "Third page text"})

	pages, err := ExtractPDFPages(pdf)
	if err != nil {
		t.Fatalf("ExtractPDFPages failed: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}

	text, err := ExtractPDFText(pdf)
	if err != nil {
		t.Fatalf("ExtractPDFText failed: %v", err)
	}
	expected := strings.Join([]string{"First page text", "Second page text", "Third page text"}, PageSeparator)
	if text != expected {
		t.Errorf("ExtractPDFText() = %q, want %q", text, expected)
	}
}

func TestExtractPDFText_EmptyInput(t *testing.T) {
	_, err := ExtractPDFText([]byte{})
	var readErr *DocumentReadError
	if !errors.As(err, &readErr) {
		t.Errorf("Expected *DocumentReadError for empty PDF data, got %v", err)
	}
}

func TestExtractPDFText_InvalidInput(t *testing.T) {
	text, err := ExtractPDFText([]byte("%PDF-1.4\nThis is not really a PDF"))
	var readErr *DocumentReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Expected *DocumentReadError for corrupt PDF, got %v", err)
	}
	if text != "" {
		t.Errorf("Expected no partial text, got %q", text)
	}
}

func TestExtractPDFText_Samples(t *testing.T) {
	samplesDir := filepath.Join("..", "samples")
	files, err := filepath.Glob(filepath.Join(samplesDir, "*.pdf"))
	if err != nil {
		t.Fatalf("Failed to list sample PDFs: %v", err)
	}
	if len(files) == 0 {
		t.Skip("No sample PDFs found in samples directory")
	}

	for _, filePath := range files {
		t.Run(filepath.Base(filePath), func(t *testing.T) {
			pdfBytes, err := os.ReadFile(filePath)
			if err != nil {
				t.Fatalf("Failed to read PDF file %s: %v", filePath, err)
			}

			expectedPageCount, err := api.PageCount(bytes.NewReader(pdfBytes), nil)
			if err != nil {
				t.Fatalf("Failed to get page count: %v", err)
			}

			pages, err := ExtractPDFPages(pdfBytes)
			if err != nil {
				t.Fatalf("ExtractPDFPages failed: %v", err)
			}
			if len(pages) != expectedPageCount {
				t.Errorf("Expected %d pages, got %d", expectedPageCount, len(pages))
			}
		})
	}
}

func TestExtractPDFPages_Layout(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "simple show",
			content:  "BT /F1 12 Tf 72 720 Td (Hello) Tj ( World) Tj ET",
			expected: "Hello World",
		},
		{
			name:     "kerned array with word gap",
			content:  "BT /F1 12 Tf [(Jane) -250 (D) 20 (oe)] TJ ET",
			expected: "Jane Doe",
		},
		{
			name:     "next line operators",
			content:  "BT /F1 12 Tf (Line one) Tj T* (Line two) Tj (Line three) ' ET",
			expected: "Line one\nLine two\nLine three",
		},
		{
			name:     "relative move down starts a line",
			content:  "BT /F1 12 Tf 72 720 Td (Name: Jane) Tj 0 -14 Td (Age: 29) Tj ET",
			expected: "Name: Jane\nAge: 29",
		},
		{
			name:     "text matrix on a new baseline",
			content:  "BT /F1 12 Tf 1 0 0 1 72 700 Tm (alpha) Tj 1 0 0 1 150 700 Tm (beta) Tj 1 0 0 1 72 680 Tm (gamma) Tj ET",
			expected: "alpha beta\ngamma",
		},
		{
			name:     "escapes and octal",
			content:  `BT /F1 12 Tf (a\(b\)c \101\102) Tj ET`,
			expected: "a(b)c AB",
		},
		{
			name:     "hex string",
			content:  "BT /F1 12 Tf <48656C6C6F> Tj ET",
			expected: "Hello",
		},
		{
			name:     "nested parentheses",
			content:  "BT /F1 12 Tf (f(x) = y) Tj ET",
			expected: "f(x) = y",
		},
		{
			name:     "image XObject ignored",
			content:  "q 1 0 0 1 0 0 cm /Im1 Do Q BT /F1 12 Tf (visible) Tj ET",
			expected: "visible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := ExtractPDFPages(onePagePDF(tt.content))
			if err != nil {
				t.Fatalf("ExtractPDFPages failed: %v", err)
			}
			if len(pages) != 1 || pages[0] != tt.expected {
				t.Errorf("ExtractPDFPages() = %q, want [%q]", pages, tt.expected)
			}
		})
	}
}

func TestExtractPDFText_FormXObject(t *testing.T) {
	t.Run("own resources", func(t *testing.T) {
		b := newTestPDF()
		font := b.helvetica()
		form := b.stream(
			fmt.Sprintf("/Type /XObject /Subtype /Form /BBox [0 0 612 792] /Resources %s", helveticaResources(font)),
			"BT /F1 12 Tf 72 700 Td (Jane Doe age 29) Tj ET",
		)
		b.page(fmt.Sprintf("<< /XObject << /Fm0 %d 0 R >> >>", form), "q 1 0 0 1 0 0 cm /Fm0 Do Q")

		text, err := ExtractPDFText(b.bytes())
		if err != nil {
			t.Fatalf("ExtractPDFText failed: %v", err)
		}
		if text != "Jane Doe age 29" {
			t.Errorf("ExtractPDFText() = %q, want %q", text, "Jane Doe age 29")
		}
	})

	t.Run("nested form using page resources", func(t *testing.T) {
		b := newTestPDF()
		font := b.helvetica()
		inner := b.stream("/Type /XObject /Subtype /Form /BBox [0 0 612 792]", "BT /F1 12 Tf (inner) Tj ET")
		outer := b.stream(
			fmt.Sprintf("/Type /XObject /Subtype /Form /BBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> /XObject << /Fm1 %d 0 R >> >>", font, inner),
			"BT /F1 12 Tf (outer) Tj ET /Fm1 Do",
		)
		b.page(fmt.Sprintf("<< /Font << /F1 %d 0 R >> /XObject << /Fm0 %d 0 R >> >>", font, outer), "BT /F1 12 Tf (page) Tj ET /Fm0 Do")

		text, err := ExtractPDFText(b.bytes())
		if err != nil {
			t.Fatalf("ExtractPDFText failed: %v", err)
		}
		if text != "page outer inner" {
			t.Errorf("ExtractPDFText() = %q, want %q", text, "page outer inner")
		}
	})
}

func TestExtractPDFText_ToUnicode(t *testing.T) {
	b := newTestPDF()
	font := b.identityFont(helloCMap)
	b.page(fmt.Sprintf("<< /Font << /F2 %d 0 R >> >>", font), "BT /F2 12 Tf 72 700 Td <002B0048004F004F0052> Tj ET")

	text, err := ExtractPDFText(b.bytes())
	if err != nil {
		t.Fatalf("ExtractPDFText failed: %v", err)
	}
	if text != "Hello" {
		t.Errorf("ExtractPDFText() = %q, want %q", text, "Hello")
	}
}

func TestExtractPDFText_UnmappableFont(t *testing.T) {
	tests := []struct {
		name    string
		cmap    string
		content string
	}{
		{"no ToUnicode map", "", "BT /F2 12 Tf <002B0048004F004F0052> Tj ET"},
		{"code missing from map", helloCMap, "BT /F2 12 Tf <002B00480099> Tj ET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestPDF()
			font := b.identityFont(tt.cmap)
			b.page(fmt.Sprintf("<< /Font << /F2 %d 0 R >> >>", font), tt.content)

			text, err := ExtractPDFText(b.bytes())
			var readErr *DocumentReadError
			if !errors.As(err, &readErr) {
				t.Fatalf("Expected *DocumentReadError, got %v", err)
			}
			if readErr.Page != 1 {
				t.Errorf("Expected the error on page 1, got page %d", readErr.Page)
			}
			if text != "" {
				t.Errorf("Expected no partial text, got %q", text)
			}
		})
	}
}

func TestExtractPDFText_NoText(t *testing.T) {
	b := newTestPDF()
	font := b.helvetica()
	b.page(helveticaResources(font), "q 0 0 1 rg 72 72 200 200 re f Q")
	b.page(helveticaResources(font), "")

	text, err := ExtractPDFText(b.bytes())
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("Expected ErrNoText, got %v", err)
	}
	var readErr *DocumentReadError
	if !errors.As(err, &readErr) {
		t.Errorf("Expected *DocumentReadError, got %T", err)
	}
	if text != "" {
		t.Errorf("Expected no text, got %q", text)
	}
}

func TestExtractPDFPages_BlankPageAmongText(t *testing.T) {
	b := newTestPDF()
	font := b.helvetica()
	b.page(helveticaResources(font), "BT /F1 12 Tf (cover) Tj ET")
	b.page(helveticaResources(font), "")
	b.page(helveticaResources(font), "BT /F1 12 Tf (body) Tj ET")

	pages, err := ExtractPDFPages(b.bytes())
	if err != nil {
		t.Fatalf("ExtractPDFPages failed: %v", err)
	}
	want := []string{"cover", "", "body"}
	if strings.Join(pages, "|") != strings.Join(want, "|") {
		t.Errorf("ExtractPDFPages() = %q, want %q", pages, want)
	}
}
