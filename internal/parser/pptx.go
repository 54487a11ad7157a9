package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

const (
	nsPresentation = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawing      = "http://schemas.openxmlformats.org/drawingml/2006/main"

	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
)

type presentationXML struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// extractPresentation concatenates the text runs of every text frame, slide by
// slide in presentation order. A deck without slides or text yields a single
// empty section.
func extractPresentation(filePath string) ([]section, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parts := make(map[string]*zip.File, len(f.File))
	for _, file := range f.File {
		parts[file.Name] = file
	}

	slides, err := slideOrder(parts)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, name := range slides {
		file, ok := parts[name]
		if !ok {
			return nil, fmt.Errorf("missing slide part %s", name)
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		err = slideRuns(rc, &text)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %v", name, err)
		}
	}
	return []section{{content: text.String()}}, nil
}

// slideOrder lists slide part names as the p:sldIdLst of presentation.xml
// orders them. Packages without presentation.xml fall back to the slideN.xml
// numbering.
func slideOrder(parts map[string]*zip.File) ([]string, error) {
	pres, ok := parts[presentationPart]
	if !ok {
		return numberedSlides(parts), nil
	}
	var p presentationXML
	if err := decodePart(pres, &p); err != nil {
		return nil, fmt.Errorf("%s: %v", presentationPart, err)
	}
	if len(p.SlideIDs) == 0 {
		return nil, nil
	}

	relsFile, ok := parts[presentationRels]
	if !ok {
		return nil, fmt.Errorf("missing %s", presentationRels)
	}
	var rels relationshipsXML
	if err := decodePart(relsFile, &rels); err != nil {
		return nil, fmt.Errorf("%s: %v", presentationRels, err)
	}
	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		targets[r.ID] = r.Target
	}

	names := make([]string, 0, len(p.SlideIDs))
	for _, id := range p.SlideIDs {
		target, ok := targets[id.RelID]
		if !ok {
			return nil, fmt.Errorf("slide relationship %q not found", id.RelID)
		}
		names = append(names, partName(target))
	}
	return names, nil
}

// partName resolves a relationship target of presentation.xml to a zip entry.
func partName(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join("ppt", target)
}

func numberedSlides(parts map[string]*zip.File) []string {
	type numbered struct {
		num  int
		name string
	}
	var slides []numbered
	for name := range parts {
		dir, base := path.Split(name)
		if dir != "ppt/slides/" || !strings.HasPrefix(base, "slide") || !strings.HasSuffix(base, ".xml") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, "slide"), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, numbered{num: num, name: name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	names := make([]string, len(slides))
	for i, s := range slides {
		names[i] = s.name
	}
	return names
}

func decodePart(file *zip.File, v interface{}) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// slideRuns writes the a:t contents found under p:txBody, in document order.
func slideRuns(r io.Reader, w *strings.Builder) error {
	dec := xml.NewDecoder(r)
	var inBody, inText int
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == nsPresentation && t.Name.Local == "txBody":
				inBody++
			case inBody > 0 && t.Name.Space == nsDrawing && t.Name.Local == "t":
				inText++
			}
		case xml.EndElement:
			switch {
			case t.Name.Space == nsPresentation && t.Name.Local == "txBody":
				inBody--
			case inText > 0 && t.Name.Space == nsDrawing && t.Name.Local == "t":
				inText--
			}
		case xml.CharData:
			if inText > 0 {
				w.Write(t)
			}
		}
	}
}
