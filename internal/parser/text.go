package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var errUnknownKind = errors.New("no extractor for kind")

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

func extractText(path string) ([]section, error) {
	content, err := readText(path)
	if err != nil {
		return nil, err
	}
	return []section{{content: content}}, nil
}

// extractMarkdown keeps the raw markdown as content; the first heading, when
// present, becomes the description.
func extractMarkdown(path string) ([]section, error) {
	content, err := readText(path)
	if err != nil {
		return nil, err
	}
	s := section{content: content}
	if heading := firstHeading([]byte(content)); heading != "" {
		s.description = fmt.Sprintf("a custom markdown file uploaded by the user: %s", heading)
	}
	return []section{s}, nil
}

func firstHeading(src []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var heading string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			heading = string(inlineText(h, src))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(heading)
}

func inlineText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.Write(inlineText(c, src))
	}
	return buf.Bytes()
}
