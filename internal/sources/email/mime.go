package email

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

// parsed is the readable part of a raw message.
type parsed struct {
	From    string
	Subject string
	Date    time.Time
	Text    string
	HTML    string
}

// parseRFC822 extracts headers and the best text/plain and text/html
// parts. fallback fills headers the message itself lacks.
func parseRFC822(raw []byte, fallback Message) parsed {
	p := parsed{From: fallback.From, Subject: fallback.Subject, Date: fallback.Date}
	if len(raw) == 0 {
		return p
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		p.Text = string(raw)
		return p
	}

	h := msg.Header
	if s := decodeRFC2047(h.Get("Subject")); s != "" {
		p.Subject = s
	}
	if f := decodeRFC2047(h.Get("From")); f != "" && p.From == "" {
		p.From = f
	}
	if p.Date.IsZero() {
		if d, err := mail.ParseDate(h.Get("Date")); err == nil {
			p.Date = d
		}
	}

	body, _ := io.ReadAll(io.LimitReader(msg.Body, 25<<20))
	p.Text, p.HTML = extractMIMETextParts(h, body)
	if p.Text == "" && p.HTML == "" {
		p.Text = string(body)
	}
	return p
}

func extractMIMETextParts(h mail.Header, body []byte) (plain, htmlPart string) {
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return string(decodeTransferEncoding(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeTransferEncoding(body, cte)), ""
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)

		var bestPlain, bestHTML string
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			partCTE := strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding")))
			pMedia, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
			pMedia = strings.ToLower(pMedia)

			b, _ := io.ReadAll(io.LimitReader(p, 20<<20))

			if strings.HasPrefix(pMedia, "multipart/") {
				pl, ht := extractMIMETextParts(mail.Header(p.Header), b)
				if len(pl) > len(bestPlain) {
					bestPlain = pl
				}
				if len(ht) > len(bestHTML) {
					bestHTML = ht
				}
				continue
			}

			b = decodeTransferEncoding(b, partCTE)
			switch {
			case strings.HasPrefix(pMedia, "text/plain"):
				if len(b) > len(bestPlain) {
					bestPlain = string(b)
				}
			case strings.HasPrefix(pMedia, "text/html"):
				if len(b) > len(bestHTML) {
					bestHTML = string(b)
				}
			}
		}
		return bestPlain, bestHTML
	}

	s := decodeTransferEncoding(body, cte)
	if strings.HasPrefix(mediaType, "text/html") {
		return "", string(s)
	}
	return string(s), ""
}

func decodeTransferEncoding(b []byte, cte string) []byte {
	switch cte {
	case "base64":
		dec := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	case "quoted-printable":
		out, _ := io.ReadAll(io.LimitReader(quotedprintable.NewReader(bytes.NewReader(b)), 6<<20))
		return out
	default:
		return b
	}
}

func decodeRFC2047(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	out, err := new(mime.WordDecoder).DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}
