package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sender is a registered correspondent. Sequence holds the last sequence
// number handed out for the address; zero means no attachment has been
// staged yet.
type Sender struct {
	Address  string
	Code     string
	Language string
	Sequence int64
}

var codePattern = regexp.MustCompile(`^[A-Z0-9]{2,8}$`)

// Validate checks that a sender entry is storable.
func (s Sender) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return errors.New("sender address is required")
	}
	if !strings.Contains(s.Address, "@") {
		return fmt.Errorf("sender address %q is not an email address", s.Address)
	}
	if !codePattern.MatchString(s.Code) {
		return fmt.Errorf("sender code %q must be 2-8 upper-case letters or digits", s.Code)
	}
	return nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Get returns the sender registered under address, or nil when unknown.
func (s *Store) Get(ctx context.Context, address string) (*Sender, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT address, code, language, sequence FROM senders WHERE address = ?",
		normalizeAddress(address))

	var sender Sender
	err := row.Scan(&sender.Address, &sender.Code, &sender.Language, &sender.Sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sender %q: %w", address, err)
	}
	return &sender, nil
}

// List returns all registered senders ordered by address.
func (s *Store) List(ctx context.Context) ([]Sender, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT address, code, language, sequence FROM senders ORDER BY address")
	if err != nil {
		return nil, fmt.Errorf("list senders: %w", err)
	}
	defer rows.Close()

	var senders []Sender
	for rows.Next() {
		var sender Sender
		if err := rows.Scan(&sender.Address, &sender.Code, &sender.Language, &sender.Sequence); err != nil {
			return nil, fmt.Errorf("scan sender: %w", err)
		}
		senders = append(senders, sender)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list senders: %w", err)
	}
	return senders, nil
}

// Upsert registers a sender or updates its code and language. The sequence
// counter is preserved on update so re-registering a sender never resets
// filename numbering.
func (s *Store) Upsert(ctx context.Context, sender Sender) error {
	if err := sender.Validate(); err != nil {
		return err
	}
	sender.Address = normalizeAddress(sender.Address)
	sender.Language = strings.ToLower(strings.TrimSpace(sender.Language))

	_, err := s.execWithRetry(ctx, `
		INSERT INTO senders (address, code, language, sequence)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(address) DO UPDATE SET code = excluded.code, language = excluded.language`,
		sender.Address, sender.Code, sender.Language)
	if err != nil {
		return fmt.Errorf("upsert sender %q: %w", sender.Address, err)
	}
	return nil
}

// Remove deletes a sender from the registry.
func (s *Store) Remove(ctx context.Context, address string) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM senders WHERE address = ?", normalizeAddress(address))
	if err != nil {
		return fmt.Errorf("remove sender %q: %w", address, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove sender %q: %w", address, err)
	}
	if affected == 0 {
		return fmt.Errorf("sender %q is not registered", address)
	}
	return nil
}

// NextSequence advances and returns the sequence counter for address. The
// increment is committed before the new value is returned, so a crash after
// this call can skip a number but never reuse one. Unregistered addresses
// are an error; intake checks registration before asking for a number.
func (s *Store) NextSequence(ctx context.Context, address string) (int64, error) {
	ctx = ensureContext(ctx)

	var seq int64
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			"UPDATE senders SET sequence = sequence + 1 WHERE address = ? RETURNING sequence",
			normalizeAddress(address))
		return row.Scan(&seq)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sender %q is not registered", address)
	}
	if err != nil {
		return 0, fmt.Errorf("advance sequence for %q: %w", address, err)
	}
	return seq, nil
}
