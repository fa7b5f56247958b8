package mailer

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/yuin/goldmark"
)

const summaryChars = 500

// reportBody is the markdown body sent with the report attachment
func reportBody(analysis string) string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	b.WriteString("Please find attached the latest sales analysis report.\n\n")
	if summary := strings.TrimSpace(analysis); summary != "" {
		b.WriteString("**Summary:**\n\n")
		b.WriteString(truncateRunes(summary, summaryChars))
		b.WriteString("\n\n")
	}
	b.WriteString("Best regards,\n\nThe analytics team\n")
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// attachment is a file carried by the message
type attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// composeMessage builds a multipart/mixed message: a text/HTML alternative rendered from
// markdownBody, then the attachments
func composeMessage(cfg *Config, subject, markdownBody string, date time.Time, attachments []attachment) ([]byte, error) {
	var htmlBody bytes.Buffer
	if err := goldmark.Convert([]byte(markdownBody), &htmlBody); err != nil {
		return nil, fmt.Errorf("failed to render email body: %w", err)
	}

	to := make([]*mail.Address, 0, len(cfg.Recipients))
	for _, r := range cfg.Recipients {
		to = append(to, &mail.Address{Address: r})
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Name: cfg.FromName, Address: cfg.From}})
	h.SetAddressList("To", to)
	h.SetSubject(subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create body: %w", err)
	}
	if err := writeInline(tw, "text/plain", markdownBody); err != nil {
		return nil, err
	}
	if err := writeInline(tw, "text/html", htmlBody.String()); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close body: %w", err)
	}

	for _, att := range attachments {
		var ah mail.AttachmentHeader
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ah.SetContentType(contentType, nil)
		ah.SetFilename(filepath.Base(att.Filename))

		w, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment %s: %w", att.Filename, err)
		}
		if _, err := w.Write(att.Content); err != nil {
			return nil, fmt.Errorf("failed to write attachment %s: %w", att.Filename, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to close attachment %s: %w", att.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInline(tw *mail.InlineWriter, contentType, body string) error {
	var ih mail.InlineHeader
	ih.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	w, err := tw.CreatePart(ih)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return w.Close()
}
