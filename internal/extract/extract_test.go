package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTextFromBytes_DOCX(t *testing.T) {
	data := buildDOCX(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
		`<w:p><w:r><w:t>Powierzchnia użytkowa: 120 m2</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>EU = 85 kWh/m2rok</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	text, err := TextFromBytes(context.Background(), data, "projekt.docx")
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	if !strings.Contains(text, "Powierzchnia użytkowa: 120 m2\nEU = 85 kWh/m2rok") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestTextFromBytes_DOCXWithoutTextIsNoText(t *testing.T) {
	data := buildDOCX(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`)

	_, err := TextFromBytes(context.Background(), data, "blank.docx")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestTextFromBytes_PDFPageMarkers(t *testing.T) {
	data := buildPDF([]string{"Usable area 120 m2", "Heat demand 9000 kWh"})

	text, err := TextFromBytes(context.Background(), data, "project.pdf")
	if err != nil {
		t.Fatalf("extract pdf: %v", err)
	}
	first := strings.Index(text, "--- Page 1 ---")
	second := strings.Index(text, "--- Page 2 ---")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected ordered page markers, got %q", text)
	}
	if !strings.Contains(text[first:second], "Usable area 120 m2") {
		t.Fatalf("page 1 text missing: %q", text)
	}
	if !strings.Contains(text[second:], "Heat demand 9000 kWh") {
		t.Fatalf("page 2 text missing: %q", text)
	}
}

func TestTextFromBytes_Rejects(t *testing.T) {
	var plainZip bytes.Buffer
	zw := zip.NewWriter(&plainZip)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	tests := []struct {
		name     string
		data     []byte
		fileName string
		want     error
	}{
		{name: "plain zip", data: plainZip.Bytes(), fileName: "notes.zip", want: ErrUnsupported},
		{name: "text renamed to pdf", data: []byte("just some text"), fileName: "fake.pdf", want: ErrUnsupported},
		{name: "image", data: []byte("\x89PNG\r\n\x1a\n"), fileName: "scan.png", want: ErrUnsupported},
		{name: "empty pdf", data: nil, fileName: "empty.pdf", want: ErrNoText},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := TextFromBytes(context.Background(), tt.data, tt.fileName)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTextFromBytes_MalformedPDF(t *testing.T) {
	_, err := TextFromBytes(context.Background(), []byte("%PDF-1.4\nnot really a pdf"), "broken.pdf")
	if err == nil {
		t.Fatal("expected error for malformed pdf")
	}
	if errors.Is(err, ErrUnsupported) {
		t.Fatalf("malformed pdf should not be reported as unsupported: %v", err)
	}
}

func TestTextFromBytes_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := TextFromBytes(ctx, buildPDF([]string{"x"}), "a.pdf"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDetectKind(t *testing.T) {
	docx := buildDOCX(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`)

	tests := []struct {
		name     string
		fileName string
		data     []byte
		want     Kind
	}{
		{name: "pdf magic wins over extension", fileName: "upload.bin", data: []byte("%PDF-1.7\n"), want: KindPDF},
		{name: "docx by content", fileName: "upload", data: docx, want: KindDOCX},
	}
	for _, tt := range tests {
		got, err := DetectKind(tt.fileName, tt.data)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close docx: %v", err)
	}
	return buf.Bytes()
}

// buildPDF writes a minimal PDF with one Helvetica text line per page.
func buildPDF(pages []string) []byte {
	fontID := 3 + 2*len(pages)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}
	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	for i, line := range pages {
		content := fmt.Sprintf("BT\n/F1 12 Tf\n72 720 Td\n(%s) Tj\nET", line)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontID, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
