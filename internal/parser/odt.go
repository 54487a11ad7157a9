package parser

import (
	"os"

	"code.sajari.com/docconv"
)

const odtMIME = "application/vnd.oasis.opendocument.text"

func extractOpenDocument(path string) ([]section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := docconv.Convert(f, odtMIME, false)
	if err != nil {
		return nil, err
	}
	return []section{{content: res.Body}}, nil
}
