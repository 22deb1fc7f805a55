package filter

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/emailguard/threat-analyzer/internal/core"
)

// EmailFromMessage converts a parsed RFC 5322 message into the analysis
// input shape: headers, sender, text body, and attachment metadata.
func EmailFromMessage(msg *mail.Message) (*core.Email, error) {
	email := &core.Email{
		Subject: msg.Header.Get("Subject"),
		Headers: make(map[string]string, len(msg.Header)),
	}

	for name, values := range msg.Header {
		if len(values) > 0 {
			email.Headers[name] = values[0]
		}
	}

	from := msg.Header.Get("From")
	if addr, err := mail.ParseAddress(from); err == nil {
		email.Sender = addr.Name
		email.SenderEmail = addr.Address
	} else {
		email.SenderEmail = from
	}

	body, attachments, err := extractParts(msg)
	if err != nil {
		return nil, err
	}
	email.Body = body
	email.Attachments = attachments

	return email, nil
}

// extractParts walks the message, collecting text/plain content and
// attachment metadata. For non-multipart messages the whole body is text.
func extractParts(msg *mail.Message) (string, []core.Attachment, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", nil, err
		}
		return string(bodyBytes), nil, nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", nil, err
		}
		return string(bodyBytes), nil, nil
	}

	mr := multipart.NewReader(msg.Body, boundary)

	var textContent bytes.Buffer
	var attachments []core.Attachment

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Salvage whatever was readable
			return textContent.String(), attachments, nil
		}

		partType := part.Header.Get("Content-Type")
		disposition := part.Header.Get("Content-Disposition")

		if filename := part.FileName(); filename != "" || strings.HasPrefix(disposition, "attachment") {
			data, _ := io.ReadAll(part)
			attachments = append(attachments, core.Attachment{
				Name: filename,
				Type: partType,
				Size: int64(len(data)),
			})
			continue
		}

		if strings.Contains(strings.ToLower(partType), "text/plain") {
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			textContent.Write(partBytes)
			textContent.WriteString("\n")
		}
		// Nested multipart and other part types are skipped
	}

	return textContent.String(), attachments, nil
}
