package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

// parseMessage extracts the return-path sender and all attachment
// payloads from a raw RFC 5322 message.
func parseMessage(raw []byte) (string, [][]byte, error) {
	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("parse message: %w", err)
	}

	sender := stripAngles(reader.Header.Get("Return-Path"))
	if sender == "" {
		return "", nil, errors.New("parse message: no return-path header")
	}

	var attachments [][]byte
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("parse message part: %w", err)
		}
		if !carriesFile(part) {
			continue
		}
		data, err := io.ReadAll(part.Body)
		if err != nil {
			return "", nil, fmt.Errorf("read attachment: %w", err)
		}
		attachments = append(attachments, data)
	}

	return sender, attachments, nil
}

// carriesFile reports whether a part holds a submitted file: an
// attachment-disposed part, or an inline-disposed one that still names
// a file. Some clients send spreadsheets with an inline disposition.
func carriesFile(part *mail.Part) bool {
	switch h := part.Header.(type) {
	case *mail.AttachmentHeader:
		return true
	case *mail.InlineHeader:
		_, params, err := h.ContentDisposition()
		return err == nil && params["filename"] != ""
	default:
		return false
	}
}

func stripAngles(address string) string {
	address = strings.TrimSpace(address)
	address = strings.ReplaceAll(address, "<", "")
	address = strings.ReplaceAll(address, ">", "")
	return strings.TrimSpace(address)
}
