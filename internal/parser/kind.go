package parser

import (
	"strings"
)

// Kind selects the extractor for a source format.
type Kind int

const (
	KindText Kind = iota + 1
	KindMarkdown
	KindPDF
	KindPresentation
	KindWord
	KindOpenDocument
	KindMbox
	KindSpreadsheet
)

var kindNames = map[Kind]string{
	KindText:         "text",
	KindMarkdown:     "markdown",
	KindPDF:          "pdf",
	KindPresentation: "presentation",
	KindWord:         "word",
	KindOpenDocument: "opendocument",
	KindMbox:         "mbox",
	KindSpreadsheet:  "spreadsheet",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// acceptedTypes maps each accepted MIME type to its extensions and kinds.
var acceptedTypes = []struct {
	mime  string
	exts  []string
	kinds []Kind
}{
	{"text/plain", []string{".txt", ".md"}, []Kind{KindText, KindMarkdown}},
	{"application/pdf", []string{".pdf"}, []Kind{KindPDF}},
	{"application/vnd.openxmlformats-officedocument.presentationml.presentation", []string{".pptx"}, []Kind{KindPresentation}},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []string{".docx"}, []Kind{KindWord}},
	{"application/vnd.oasis.opendocument.text", []string{".odt"}, []Kind{KindOpenDocument}},
	{"application/mbox", []string{".mbox"}, []Kind{KindMbox}},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []string{".xlsx"}, []Kind{KindSpreadsheet}},
}

var byExtension = func() map[string]Kind {
	m := make(map[string]Kind)
	for _, t := range acceptedTypes {
		for i, ext := range t.exts {
			m[ext] = t.kinds[i]
		}
	}
	return m
}()

// KindForExtension resolves a file extension (with leading dot, any case).
func KindForExtension(ext string) (Kind, bool) {
	k, ok := byExtension[strings.ToLower(ext)]
	return k, ok
}

// AcceptedMIMEs returns a fresh copy of the MIME type to extensions mapping.
func AcceptedMIMEs() map[string][]string {
	out := make(map[string][]string, len(acceptedTypes))
	for _, t := range acceptedTypes {
		out[t.mime] = append([]string(nil), t.exts...)
	}
	return out
}

func (k Kind) extract(path string) ([]section, error) {
	switch k {
	case KindText:
		return extractText(path)
	case KindMarkdown:
		return extractMarkdown(path)
	case KindPDF:
		return extractPDF(path)
	case KindPresentation:
		return extractPresentation(path)
	case KindWord:
		return extractWord(path)
	case KindOpenDocument:
		return extractOpenDocument(path)
	case KindMbox:
		return extractMbox(path)
	case KindSpreadsheet:
		return extractSpreadsheet(path)
	default:
		return nil, errUnknownKind
	}
}
