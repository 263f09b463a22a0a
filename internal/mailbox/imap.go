package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/kingsdigitallab/finding-africa/internal/config"
	"github.com/kingsdigitallab/finding-africa/internal/services"
)

// IMAPSource reads unread messages from an IMAP mailbox over TLS.
type IMAPSource struct {
	client *imapclient.Client
	folder string
	logger *slog.Logger
}

var fullBody = &imap.FetchItemBodySection{Peek: true}

// Dial connects and authenticates against the configured mailbox and
// selects the submission folder. Missing connection settings are a
// configuration error.
func Dial(cfg *config.Config, logger *slog.Logger) (*IMAPSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mb := cfg.Mailbox
	if mb.Address == "" || mb.Username == "" || mb.Password == "" {
		return nil, services.Wrap(services.ErrConfiguration, "mailbox", "dial",
			"mailbox address, username, and password must be configured", nil)
	}

	client, err := imapclient.DialTLS(fmt.Sprintf("%s:%d", mb.Address, mb.Port), nil)
	if err != nil {
		return nil, fmt.Errorf("mailbox: dial %s: %w", mb.Address, err)
	}

	if err := client.Login(mb.Username, mb.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("mailbox: login %s: %w", mb.Username, err)
	}
	if _, err := client.Select(mb.Folder, nil).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("mailbox: select %s: %w", mb.Folder, err)
	}

	return &IMAPSource{client: client, folder: mb.Folder, logger: logger}, nil
}

// FetchUnread peek-fetches every unseen message and reduces each to its
// sender and attachment payloads. Messages that cannot be parsed are
// skipped and logged; they stay unread for inspection.
func (s *IMAPSource) FetchUnread(ctx context.Context) ([]Message, error) {
	searchData, err := s.client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("mailbox: search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	buffers, err := s.client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{fullBody},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("mailbox: fetch unseen: %w", err)
	}

	var messages []Message
	for _, buf := range buffers {
		raw := buf.FindBodySection(fullBody)
		if len(raw) == 0 {
			s.logger.Warn("fetched message without body", "uid", uint32(buf.UID))
			continue
		}
		sender, attachments, err := parseMessage(raw)
		if err != nil {
			s.logger.Warn("skipping unparsable message", "uid", uint32(buf.UID), "error", err)
			continue
		}
		messages = append(messages, Message{
			ID:          strconv.FormatUint(uint64(buf.UID), 10),
			Sender:      sender,
			Attachments: attachments,
		})
	}

	return messages, nil
}

// MarkRead sets the seen flag on the message.
func (s *IMAPSource) MarkRead(ctx context.Context, msg Message) error {
	uid, err := strconv.ParseUint(msg.ID, 10, 32)
	if err != nil {
		return fmt.Errorf("mailbox: mark read: bad message id %q: %w", msg.ID, err)
	}
	cmd := s.client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("mailbox: mark read %s: %w", msg.ID, err)
	}
	return nil
}

// Close logs out and closes the connection.
func (s *IMAPSource) Close() error {
	if err := s.client.Logout().Wait(); err != nil {
		_ = s.client.Close()
		return fmt.Errorf("mailbox: logout: %w", err)
	}
	return s.client.Close()
}
