package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/metrics"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/relay"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit one message through the SMTP relay",
	Long: `Submit one fully-formed message through the SMTP relay.

The delivery is recorded before submission; the command prints the
delivery identifier either way.

Example:
  nubomaild send --to pat@example.com --subject "hello" --text "hi there"`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		log := mustLogger(cfg)

		if cfg.Relay.Host == "" {
			fatal(fmt.Errorf("NUBO_RELAY_HOST is required"))
		}

		st := mustOpenStore(cfg)
		defer st.Close()

		flags := cmd.Flags()
		from, _ := flags.GetString("from")
		fromName, _ := flags.GetString("from-name")
		to, _ := flags.GetStringSlice("to")
		cc, _ := flags.GetStringSlice("cc")
		bcc, _ := flags.GetStringSlice("bcc")
		subject, _ := flags.GetString("subject")
		text, _ := flags.GetString("text")
		html, _ := flags.GetString("html")
		inReplyTo, _ := flags.GetString("in-reply-to")
		references, _ := flags.GetStringSlice("references")
		attach, _ := flags.GetStringSlice("attach")

		msg := &model.OutboundMessage{
			FromName:    fromName,
			FromAddress: from,
			To:          to,
			Cc:          cc,
			Bcc:         bcc,
			Subject:     subject,
			TextBody:    text,
			HTMLBody:    html,
			InReplyTo:   inReplyTo,
			References:  references,
		}

		for _, path := range attach {
			content, err := os.ReadFile(path)
			if err != nil {
				fatal(fmt.Errorf("reading attachment: %w", err))
			}
			msg.Attachments = append(msg.Attachments, model.OutboundAttachment{
				Filename:    filepath.Base(path),
				ContentType: mime.TypeByExtension(filepath.Ext(path)),
				Content:     content,
			})
		}

		r := relay.New(cfg.Relay, st, metrics.New(prometheus.NewRegistry()), log)

		deliveryID, err := r.Send(context.Background(), msg)
		if err != nil {
			if deliveryID != "" {
				fmt.Printf("Delivery %s failed\n", deliveryID)
			}
			fatal(err)
		}
		fmt.Printf("Delivery %s sent\n", deliveryID)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	flags := sendCmd.Flags()
	flags.String("from", "", "sender address (default: relay from address)")
	flags.String("from-name", "", "sender display name")
	flags.StringSlice("to", nil, "recipient address (repeatable)")
	flags.StringSlice("cc", nil, "cc address (repeatable)")
	flags.StringSlice("bcc", nil, "bcc address (repeatable)")
	flags.String("subject", "", "message subject")
	flags.String("text", "", "plain text body")
	flags.String("html", "", "HTML body")
	flags.String("in-reply-to", "", "Message-ID being replied to")
	flags.StringSlice("references", nil, "thread reference Message-ID (repeatable)")
	flags.StringSlice("attach", nil, "file to attach (repeatable)")

	_ = sendCmd.MarkFlagRequired("to")
}
