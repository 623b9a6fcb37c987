package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/mikey/llm-email-assistant/internal/core"
	"golang.org/x/text/encoding/htmlindex"
)

// identifying headers; a parse without any of them is treated as pasted text
var messageHeaders = []string{"From", "To", "Subject", "Date", "Message-Id"}

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded-words in a header value
func decodeEncodedHeader(value string) (string, error) {
	return wordDecoder.DecodeHeader(value)
}

// ParseEmail parses an RFC 5322 message. Input that is not a message is
// returned as a bare body so pasted text can be analyzed directly.
func ParseEmail(raw []byte) (*core.Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil || !looksLikeMessage(msg.Header) {
		return &core.Email{Body: string(raw), Headers: map[string][]string{}}, nil
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	email := &core.Email{
		Headers: make(map[string][]string, len(msg.Header)),
		Body:    body,
	}
	for key, values := range msg.Header {
		email.Headers[key] = values
	}

	email.Subject = decodeOrRaw(msg.Header.Get("Subject"))
	email.From = decodeOrRaw(msg.Header.Get("From"))
	if from, err := mail.ParseAddress(email.From); err == nil {
		email.From = from.Address
	}
	if to, err := msg.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			email.To = append(email.To, addr.Address)
		}
	} else if raw := msg.Header.Get("To"); raw != "" {
		email.To = []string{decodeOrRaw(raw)}
	}

	return email, nil
}

func looksLikeMessage(header mail.Header) bool {
	for _, key := range messageHeaders {
		if header.Get(key) != "" {
			return true
		}
	}
	return false
}

func decodeOrRaw(value string) string {
	decoded, err := decodeEncodedHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// decodeBody undoes the transfer encoding and converts the charset to UTF-8
func decodeBody(r io.Reader, transferEncoding, contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if charset := params["charset"]; charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
			if decoded, err := charsetReader(charset, r); err == nil {
				r = decoded
			}
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// newlineStripper drops CR and LF so line-wrapped base64 decodes cleanly
type newlineStripper struct {
	r io.Reader
}

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		count, err := n.r.Read(p)
		kept := 0
		for _, b := range p[:count] {
			if b != '\r' && b != '\n' {
				p[kept] = b
				kept++
			}
		}
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}

// extractTextFromMessage extracts the text content from an email message
// For multipart messages, it collects the text/plain parts
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	transferEncoding := msg.Header.Get("Content-Transfer-Encoding")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return decodeBody(msg.Body, transferEncoding, contentType)
	}

	var textContent bytes.Buffer
	if err := collectTextParts(multipart.NewReader(msg.Body, params["boundary"]), &textContent); err != nil && textContent.Len() == 0 {
		return "", err
	}

	if textContent.Len() > 0 {
		return textContent.String(), nil
	}

	return "[No text content found in multipart message]", nil
}

// collectTextParts walks a multipart body, descending into nested multiparts
func collectTextParts(mr *multipart.Reader, out *bytes.Buffer) error {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		partType := part.Header.Get("Content-Type")
		mediaType, params, err := mime.ParseMediaType(partType)
		if err != nil {
			mediaType = "text/plain"
		}

		switch {
		case strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != "":
			if err := collectTextParts(multipart.NewReader(part, params["boundary"]), out); err != nil {
				return err
			}
		case mediaType == "text/plain":
			// multipart.Part already removes quoted-printable encoding
			text, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"), partType)
			if err != nil {
				continue
			}
			out.WriteString(text)
			out.WriteString("\n")
		}
		// Skip other parts (attachments, html alternatives)
	}
}
