package relay

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// generateMessageID builds a globally unique Message-ID for an outbound
// message, using the sender's domain when one is present.
func generateMessageID(msg *model.OutboundMessage, fallbackHost string) string {
	domain := fallbackHost
	if at := strings.LastIndex(msg.FromAddress, "@"); at >= 0 && at < len(msg.FromAddress)-1 {
		domain = msg.FromAddress[at+1:]
	}
	return fmt.Sprintf("%s@%s", uuid.NewString(), domain)
}

// compose renders an outbound message as an RFC 822 payload with text and
// HTML alternatives followed by any attachments.
func compose(msg *model.OutboundMessage, messageID string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now().UTC())
	h.SetMessageID(messageID)
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{{Name: msg.FromName, Address: msg.FromAddress}})
	if len(msg.To) > 0 {
		h.SetAddressList("To", toAddressList(msg.To))
	}
	if len(msg.Cc) > 0 {
		h.SetAddressList("Cc", toAddressList(msg.Cc))
	}
	if msg.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{msg.InReplyTo})
	}
	if len(msg.References) > 0 {
		h.SetMsgIDList("References", msg.References)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	if err := writeBodies(mw, msg); err != nil {
		return nil, err
	}
	for _, att := range msg.Attachments {
		if err := writeAttachment(mw, att); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBodies writes the text and HTML bodies as alternative inline parts.
// A message with neither still gets an empty text part so the payload is
// well formed.
func writeBodies(mw *mail.Writer, msg *model.OutboundMessage) error {
	tw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating inline part: %w", err)
	}

	if msg.TextBody != "" || msg.HTMLBody == "" {
		if err := writeInlinePart(tw, "text/plain", msg.TextBody); err != nil {
			return err
		}
	}
	if msg.HTMLBody != "" {
		if err := writeInlinePart(tw, "text/html", msg.HTMLBody); err != nil {
			return err
		}
	}

	return tw.Close()
}

func writeInlinePart(tw *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	w, err := tw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("writing %s part: %w", contentType, err)
	}
	return w.Close()
}

func writeAttachment(mw *mail.Writer, att model.OutboundAttachment) error {
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var h mail.AttachmentHeader
	h.SetFilename(att.Filename)
	h.SetContentType(contentType, nil)

	w, err := mw.CreateAttachment(h)
	if err != nil {
		return fmt.Errorf("creating attachment %s: %w", att.Filename, err)
	}
	if _, err := w.Write(att.Content); err != nil {
		return fmt.Errorf("writing attachment %s: %w", att.Filename, err)
	}
	return w.Close()
}

func toAddressList(addrs []string) []*mail.Address {
	list := make([]*mail.Address, 0, len(addrs))
	for _, a := range addrs {
		list = append(list, &mail.Address{Address: a})
	}
	return list
}
