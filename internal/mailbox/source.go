// Package mailbox is the inbound mail collaborator: it supplies unread
// message attachments as (sender, payload) pairs and marks messages
// read once their attachments have been taken in.
package mailbox

import "context"

// Message is one unread mailbox message reduced to what intake needs:
// the sender address from the return-path header and the raw attachment
// payloads in part order.
type Message struct {
	// ID identifies the message for logging and MarkRead.
	ID string
	// Sender is the return-path address with angle brackets stripped.
	Sender string
	// Attachments holds the decoded payload of every attachment part.
	Attachments [][]byte
}

// Source supplies unread messages. The pipeline marks a message read
// after all of its attachments have been processed, matching the
// upstream submission workflow even when some parts were skipped.
type Source interface {
	FetchUnread(ctx context.Context) ([]Message, error)
	MarkRead(ctx context.Context, msg Message) error
	Close() error
}
