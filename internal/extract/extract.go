package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"heatpump-backend/internal/shared/telemetry"
)

// Kind is a supported document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

var (
	// ErrNoText means the document parsed but yielded no extractable text.
	ErrNoText = errors.New("no extractable text in document")
	// ErrUnsupported means the payload is not a recognized document type.
	ErrUnsupported = errors.New("unsupported document type")
)

var pdfMagic = []byte("%PDF-")

// Extensions lists the file extensions accepted for upload.
var Extensions = map[string]Kind{
	".pdf":  KindPDF,
	".docx": KindDOCX,
}

// Adapter extracts text from uploaded documents. The zero value is ready to use.
type Adapter struct{}

// ExtractText implements the text extraction collaborator used by the analysis service.
func (Adapter) ExtractText(ctx context.Context, data []byte, fileName string) (string, error) {
	return TextFromBytes(ctx, data, fileName)
}

// TextFromBytes returns page-ordered text for a PDF or paragraph text for a DOCX.
func TextFromBytes(ctx context.Context, data []byte, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	kind, err := DetectKind(fileName, data)
	if err != nil {
		return "", err
	}

	var text string
	switch kind {
	case KindPDF:
		text, err = extractPDF(ctx, data)
	case KindDOCX:
		text, err = extractDOCX(data)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", kind, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// DetectKind classifies the payload by content first and file extension second.
func DetectKind(fileName string, data []byte) (Kind, error) {
	if bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return KindPDF, nil
	}
	if isDOCX(data) {
		return KindDOCX, nil
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if kind, ok := Extensions[ext]; ok && len(data) == 0 {
		return kind, fmt.Errorf("empty %s payload: %w", kind, ErrNoText)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
}

func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	total := reader.NumPage()
	if total == 0 {
		return "", errors.New("pdf has no pages")
	}

	var b strings.Builder
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			telemetry.Warn("extract.pdf.page_skipped", map[string]any{
				"page":  i,
				"error": err.Error(),
			})
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", i, pageText)
	}
	return b.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return paragraphText(rc)
}

// paragraphText collects character data, breaking lines at paragraphs, line
// breaks and table cells.
func paragraphText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "br", "tc":
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func isDOCX(data []byte) bool {
	if len(data) < 4 || !bytes.HasPrefix(data, []byte("PK")) {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
