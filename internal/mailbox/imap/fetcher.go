package imap

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox"
)

// bodySection requests the full message body without setting \Seen.
var bodySection = &imap.FetchItemBodySection{Peek: true}

// Fetcher retrieves messages over IMAP.
type Fetcher struct{}

var _ mailbox.Fetcher = (*Fetcher)(nil)

// New returns an IMAP fetcher.
func New() *Fetcher {
	return &Fetcher{}
}

// Name implements mailbox.Fetcher.
func (f *Fetcher) Name() string {
	return "imap"
}

// Fetch connects to the account, walks its folders, and hands every message
// newer than since to the handler, at most limit per folder.
func (f *Fetcher) Fetch(ctx context.Context, acct mailbox.Account, since time.Time, limit int, handler mailbox.Handler) error {
	c, err := connect(acct)
	if err != nil {
		return err
	}
	defer c.Logout().Wait()

	folders, err := listFolders(c, acct)
	if err != nil {
		return err
	}

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fetchFolder(ctx, c, folder, since, limit, handler); err != nil {
			return fmt.Errorf("folder %s: %w", folder, err)
		}
	}

	return nil
}

// listFolders returns the folders to sync: the configured list when the
// account names one, otherwise every selectable folder on the server.
func listFolders(c *imapclient.Client, acct mailbox.Account) ([]string, error) {
	if len(acct.Folders) > 0 {
		return acct.Folders, nil
	}

	listed, err := c.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}

	var folders []string
	for _, mb := range listed {
		if slices.Contains(mb.Attrs, imap.MailboxAttrNoSelect) {
			continue
		}
		folders = append(folders, mb.Mailbox)
	}
	sort.Strings(folders)

	return folders, nil
}

// fetchFolder selects one folder, searches for messages newer than since,
// and fetches the newest limit of them with envelope, flags, and body.
func fetchFolder(ctx context.Context, c *imapclient.Client, folder string, since time.Time, limit int, handler mailbox.Handler) error {
	if _, err := c.Select(folder, nil).Wait(); err != nil {
		return fmt.Errorf("selecting: %w", err)
	}

	searchData, err := c.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return fmt.Errorf("searching since %s: %w", since.Format("2006-01-02"), err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil
	}
	// UIDs ascend with delivery order, so the tail holds the newest.
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	fetchOptions := &imap.FetchOptions{
		Envelope:     true,
		Flags:        true,
		UID:          true,
		InternalDate: true,
		RFC822Size:   true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), fetchOptions)
	defer fetchCmd.Close()

	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			return fmt.Errorf("collecting message: %w", err)
		}

		if err := handler.Handle(ctx, fetchedFromBuffer(folder, buf)); err != nil {
			return err
		}
	}

	return nil
}

// fetchedFromBuffer converts a fetched message buffer into the protocol
// independent form handed to handlers.
func fetchedFromBuffer(folder string, buf *imapclient.FetchMessageBuffer) *mailbox.Fetched {
	fetched := &mailbox.Fetched{
		Folder:       folder,
		UID:          uint32(buf.UID),
		InternalDate: buf.InternalDate,
		SizeBytes:    buf.RFC822Size,
		Raw:          buf.FindBodySection(bodySection),
	}

	for _, flag := range buf.Flags {
		fetched.Flags = append(fetched.Flags, string(flag))
	}

	if env := buf.Envelope; env != nil {
		fetched.Envelope = mailbox.Envelope{
			MessageID: env.MessageID,
			Subject:   env.Subject,
			Date:      env.Date,
		}
		if len(env.From) > 0 {
			fetched.Envelope.FromName = env.From[0].Name
			fetched.Envelope.FromAddr = env.From[0].Addr()
		}
		for _, addr := range env.To {
			fetched.Envelope.To = append(fetched.Envelope.To, addr.Addr())
		}
		for _, addr := range env.Cc {
			fetched.Envelope.Cc = append(fetched.Envelope.Cc, addr.Addr())
		}
		if len(env.ReplyTo) > 0 {
			fetched.Envelope.ReplyTo = env.ReplyTo[0].Addr()
		}
	}

	return fetched
}
