package parser

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const nsWord = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// extractWord reads the main document part and keeps one line per paragraph.
func extractWord(filePath string) ([]section, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content, err := wordText(r.Editable().GetContent())
	if err != nil {
		return nil, err
	}
	return []section{{content: content}}, nil
}

func wordText(document string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(document))

	var paragraphs []string
	var current strings.Builder
	var depth, inText int
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != nsWord {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth++
			case "t":
				inText++
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != nsWord {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth--
				// nested paragraphs (text boxes) flush with their parent
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
					current.Reset()
				}
			case "t":
				inText--
			}
		case xml.CharData:
			if inText > 0 {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return strings.Join(paragraphs, "\n"), nil
}
