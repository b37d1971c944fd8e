package mailbox

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"
)

// AttachmentInfo is the metadata of one attachment part.
type AttachmentInfo struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	IsInline    bool
	ContentID   string
}

// Parsed is the decoded content of one message.
type Parsed struct {
	// Envelope is rebuilt from the message headers. Callers that already
	// have a server-side envelope should prefer it and use this one to fill
	// gaps.
	Envelope Envelope

	TextBody    string
	HTMLBody    string
	Attachments []AttachmentInfo
}

// Parse decodes a raw RFC 822 message into envelope headers, text and HTML
// bodies, and attachment metadata. A message that cannot be read as MIME
// degrades to treating the whole payload as plain text.
func Parse(raw []byte) *Parsed {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return &Parsed{TextBody: string(raw)}
	}
	defer mr.Close()

	parsed := &Parsed{Envelope: envelopeFromHeader(&mr.Header)}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, params, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				if parsed.TextBody == "" {
					parsed.TextBody = string(body)
				}
			case strings.HasPrefix(contentType, "text/html"):
				if parsed.HTMLBody == "" {
					parsed.HTMLBody = string(body)
				}
			default:
				// Inline non-text parts (images referenced from the HTML
				// body) are recorded as inline attachments.
				parsed.Attachments = append(parsed.Attachments, AttachmentInfo{
					Filename:    params["name"],
					ContentType: contentType,
					SizeBytes:   int64(len(body)),
					IsInline:    true,
					ContentID:   CanonicalMessageID(h.Get("Content-Id")),
				})
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			parsed.Attachments = append(parsed.Attachments, AttachmentInfo{
				Filename:    filename,
				ContentType: contentType,
				SizeBytes:   int64(len(body)),
			})
		}
	}

	return parsed
}

// HasRealAttachments reports whether any non-inline attachment exists.
func (p *Parsed) HasRealAttachments() bool {
	for _, a := range p.Attachments {
		if !a.IsInline {
			return true
		}
	}
	return false
}

// Snippet derives a short single-line plain-text preview from the bodies,
// capped at maxRunes.
func (p *Parsed) Snippet(maxRunes int) string {
	text := p.TextBody
	if strings.TrimSpace(text) == "" {
		text = stripHTML(p.HTMLBody)
	}
	text = strings.Join(strings.Fields(text), " ")

	if maxRunes > 0 {
		runes := []rune(text)
		if len(runes) > maxRunes {
			text = string(runes[:maxRunes])
		}
	}
	return text
}

// envelopeFromHeader rebuilds an Envelope from parsed message headers.
func envelopeFromHeader(h *mail.Header) Envelope {
	var env Envelope

	if id, err := h.MessageID(); err == nil {
		env.MessageID = id
	}
	if subject, err := h.Subject(); err == nil {
		env.Subject = subject
	}
	if date, err := h.Date(); err == nil {
		env.Date = date
	}

	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		env.FromName = from[0].Name
		env.FromAddr = from[0].Address
	}
	if to, err := h.AddressList("To"); err == nil {
		for _, addr := range to {
			env.To = append(env.To, addr.Address)
		}
	}
	if cc, err := h.AddressList("Cc"); err == nil {
		for _, addr := range cc {
			env.Cc = append(env.Cc, addr.Address)
		}
	}
	if replyTo, err := h.AddressList("Reply-To"); err == nil && len(replyTo) > 0 {
		env.ReplyTo = replyTo[0].Address
	}

	return env
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common entities,
// providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
