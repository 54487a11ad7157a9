// Package fixtures builds small, valid documents of every supported format
// for tests.
package fixtures

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Write stores data as dir/name and returns the full path.
func Write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func zipped(t testing.TB, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip %s: %v", name, err)
		}
		if _, err := f.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// PDF returns a document with one page per entry, each page showing its text
// in a WinAnsi Helvetica font. An empty entry produces a page without text.
func PDF(pages ...string) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // patched once the page tree exists
	tree := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	kids := make([]string, 0, len(pages))
	for _, text := range pages {
		stream := "BT /F1 12 Tf 72 720 Td ET"
		if text != "" {
			esc := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", esc)
		}
		content := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", tree, font, content))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree)
	objects[tree-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return buf.Bytes()
}

// Presentation returns a pptx with one slide per entry; each string becomes a
// shape holding a single run. A slide with no strings gets a picture-only
// shape tree.
func Presentation(t testing.TB, slides ...[]string) []byte {
	t.Helper()
	order := make([]int, len(slides))
	for i := range order {
		order[i] = i + 1
	}
	return ReorderedPresentation(t, order, slides...)
}

// ReorderedPresentation is Presentation with slide i stored as slide<i+1>.xml
// while p:sldIdLst lists the parts in order (1-based part numbers).
func ReorderedPresentation(t testing.TB, order []int, slides ...[]string) []byte {
	t.Helper()
	var ids, rels strings.Builder
	for i, n := range order {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, n+1)
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, n+1, n)
	}
	files := map[string]string{
		"[Content_Types].xml": contentTypes,
		"ppt/presentation.xml": fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><p:sldMasterIdLst/><p:sldIdLst>%s</p:sldIdLst></p:presentation>`, ids.String()),
		"ppt/_rels/presentation.xml.rels": fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>%s</Relationships>`, rels.String()),
	}
	for i, shapes := range slides {
		var tree strings.Builder
		for _, text := range shapes {
			fmt.Fprintf(&tree, `<p:sp><p:nvSpPr><p:cNvPr id="2" name="Title"/></p:nvSpPr><p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, escape(text))
		}
		if len(shapes) == 0 {
			tree.WriteString(`<p:pic><p:nvPicPr><p:cNvPr id="3" name="Picture"/></p:nvPicPr></p:pic>`)
		}
		files[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>%s</p:spTree></p:cSld></p:sld>`, tree.String())
	}
	return zipped(t, files)
}

// Zip packs name to content pairs into a zip archive.
func Zip(t testing.TB, files map[string]string) []byte {
	t.Helper()
	return zipped(t, files)
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`

// Word returns a docx with one paragraph per entry.
func Word(t testing.TB, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, escape(p))
	}
	return zipped(t, map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`,
		"word/document.xml": fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s</w:body></w:document>`, body.String()),
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	})
}

// OpenDocument returns an odt with one paragraph per entry.
func OpenDocument(t testing.TB, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<text:p>%s</text:p>`, escape(p))
	}
	return zipped(t, map[string]string{
		"mimetype": "application/vnd.oasis.opendocument.text",
		"content.xml": fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" office:version="1.2"><office:body><office:text>%s</office:text></office:body></office:document-content>`, body.String()),
		"meta.xml": `<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0" xmlns:dc="http://purl.org/dc/elements/1.1/" office:version="1.2"><office:meta><meta:initial-creator>fixtures</meta:initial-creator><meta:creation-date>2024-01-02T03:04:05</meta:creation-date></office:meta></office:document-meta>`,
	})
}

// Message is one mail in an mbox fixture.
type Message struct {
	From    string
	Subject string
	Date    string
	// Header lines added verbatim, e.g. a multipart Content-Type.
	Headers []string
	Body    string
}

// Mbox returns an mbox archive holding msgs in order.
func Mbox(msgs ...Message) []byte {
	var buf bytes.Buffer
	for _, m := range msgs {
		from := m.From
		if from == "" {
			from = "sender@example.com"
		}
		fmt.Fprintf(&buf, "From %s Mon Jan  1 00:00:00 2024\n", from)
		fmt.Fprintf(&buf, "From: %s\n", from)
		if m.Subject != "" {
			fmt.Fprintf(&buf, "Subject: %s\n", m.Subject)
		}
		if m.Date != "" {
			fmt.Fprintf(&buf, "Date: %s\n", m.Date)
		}
		for _, h := range m.Headers {
			buf.WriteString(h + "\n")
		}
		buf.WriteString("\n")
		buf.WriteString(m.Body)
		if !strings.HasSuffix(m.Body, "\n") {
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// Spreadsheet returns an xlsx whose first sheet holds rows.
func Spreadsheet(t testing.TB, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, value); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

// ForExtension returns a valid document for ext containing text.
func ForExtension(t testing.TB, ext, text string) []byte {
	t.Helper()
	switch ext {
	case ".txt", ".md":
		return []byte(text)
	case ".pdf":
		return PDF(text)
	case ".pptx":
		return Presentation(t, []string{text})
	case ".docx":
		return Word(t, text)
	case ".odt":
		return OpenDocument(t, text)
	case ".mbox":
		return Mbox(Message{Subject: "fixture", Body: text})
	case ".xlsx":
		return Spreadsheet(t, [][]string{{text}})
	}
	t.Fatalf("no fixture for %s", ext)
	return nil
}
