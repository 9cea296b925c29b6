package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Ivan Ivanov</w:t></w:r></w:p>
<w:p><w:r><w:t>Backend developer</w:t></w:r></w:p>
</w:body></w:document>`

func TestFromBytesDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": documentXML})

	for _, mime := range []string{MimeDOCX, "application/zip", "application/octet-stream"} {
		text, err := FromBytes(context.Background(), data, mime, "cv.docx")
		if err != nil {
			t.Fatalf("FromBytes(%s): %v", mime, err)
		}
		if !strings.Contains(text, "Ivan Ivanov") || !strings.Contains(text, "Backend developer") {
			t.Fatalf("unexpected text %q", text)
		}
	}
}

func TestFromBytesRejectsPlainZip(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "hello"})

	_, err := FromBytes(context.Background(), data, "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFromBytesRejectsUnknownType(t *testing.T) {
	_, err := FromBytes(context.Background(), []byte("hello"), "text/plain", "cv.txt")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFromBytesEmptyDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": `<w:document xmlns:w="x"><w:body></w:body></w:document>`})
	if _, err := FromBytes(context.Background(), data, MimeDOCX, "cv.docx"); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestFromBytesInvalidPDF(t *testing.T) {
	if _, err := FromBytes(context.Background(), []byte("%PDF-1.4 garbage"), "", "cv.pdf"); err == nil {
		t.Fatalf("expected error for malformed pdf")
	}
}

func TestTextEnforcesSizeLimit(t *testing.T) {
	big := bytes.NewReader(make([]byte, MaxSourceBytes+10))
	if _, err := Text(context.Background(), big, MimePDF, "cv.pdf"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}
