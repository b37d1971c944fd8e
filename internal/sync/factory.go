package sync

import (
	"fmt"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox/imap"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox/pop3"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// ProtocolFactory hands out the fetcher matching an account's protocol.
type ProtocolFactory struct{}

var _ mailbox.Factory = (*ProtocolFactory)(nil)

// NewFactory returns the production fetcher factory.
func NewFactory() *ProtocolFactory {
	return &ProtocolFactory{}
}

// FetcherFor implements mailbox.Factory.
func (f *ProtocolFactory) FetcherFor(acct mailbox.Account) (mailbox.Fetcher, error) {
	switch acct.Protocol {
	case model.ProtocolIMAP:
		return imap.New(), nil
	case model.ProtocolPOP3:
		return pop3.New(), nil
	default:
		return nil, fmt.Errorf("unsupported protocol %q", acct.Protocol)
	}
}
