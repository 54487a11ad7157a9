package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/rs/zerolog/log"

	"document-processor/internal/htmltext"
	"document-processor/internal/models"
)

// extractMbox yields one section per message in the archive. Messages that
// carry no readable body are skipped.
func extractMbox(path string) ([]section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	base := filepath.Base(path)
	r := mbox.NewReader(f)

	var sections []section
	for n := 1; ; n++ {
		raw, err := r.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read message %d: %v", n, err)
		}

		msg, err := mail.ReadMessage(raw)
		if err != nil {
			log.Warn().Err(err).Int("message", n).Str("file", base).Msg("skipping unreadable message")
			continue
		}
		s, err := messageSection(msg)
		if err != nil {
			log.Warn().Err(err).Int("message", n).Str("file", base).Msg("skipping message body")
			continue
		}
		if s.title == "" {
			s.title = fmt.Sprintf("%s #%d", base, n)
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func messageSection(msg *mail.Message) (section, error) {
	body, err := messageBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return section{}, err
	}

	s := section{
		title:   decodeHeader(msg.Header.Get("Subject")),
		content: strings.TrimSpace(body),
	}
	if from := decodeHeader(msg.Header.Get("From")); from != "" {
		s.description = "From: " + from
	}
	if date, err := mail.ParseDate(msg.Header.Get("Date")); err == nil {
		s.published = date.Local().Format(models.PublishedLayout)
	}
	return s, nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the input untouched
// when it cannot be decoded.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func messageBody(contentType, encoding string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return multipartBody(r, params["boundary"])
	}

	data, err := io.ReadAll(transferDecoder(encoding, r))
	if err != nil {
		return "", err
	}
	switch mediaType {
	case "text/html":
		_, text, err := htmltext.Extract(bytes.NewReader(data))
		return text, err
	case "text/plain":
		return strings.ToValidUTF8(string(data), "�"), nil
	default:
		return "", nil
	}
}

// multipartBody prefers text/plain parts over text/html ones.
func multipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", fmt.Errorf("multipart body without boundary")
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		partType := part.Header.Get("Content-Type")
		mediaType, _, parseErr := mime.ParseMediaType(partType)
		if parseErr != nil {
			mediaType = "text/plain"
		}
		// multipart.Part already undoes quoted-printable
		text, err := messageBody(partType, part.Header.Get("Content-Transfer-Encoding"), part)
		part.Close()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}

		if mediaType == "text/html" {
			htmlParts = append(htmlParts, text)
		} else {
			textParts = append(textParts, text)
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

func transferDecoder(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 bodies decode.
type newlineStripper struct {
	r io.Reader
}

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		c, err := n.r.Read(p)
		kept := p[:0]
		for _, b := range p[:c] {
			if b != '\r' && b != '\n' {
				kept = append(kept, b)
			}
		}
		if len(kept) > 0 || err != nil {
			return len(kept), err
		}
	}
}
