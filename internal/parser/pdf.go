package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// extractPDF concatenates page text in page order. Pages without extractable
// text contribute nothing; an image-only PDF therefore ends up empty.
func extractPDF(path string) (sections []section, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Get file size for reader initialization
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			sections = nil
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %v", err)
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Str("file", path).Msg("no text on page")
			continue
		}
		text.WriteString(pageText)
	}
	return []section{{content: text.String()}}, nil
}
