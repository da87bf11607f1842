package store

import (
	"context"
	"fmt"
	"time"
)

// AddWaitlistEmail records a waitlist signup. Returns true if the email was
// newly added, false if it was already on the list.
func (s *Store) AddWaitlistEmail(ctx context.Context, email string) (bool, error) {
	q := s.rebind(`INSERT INTO waitlist (email, created_at) VALUES (?, ?)
		ON CONFLICT (email) DO NOTHING`)
	result, err := s.db.ExecContext(ctx, q, email, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("add waitlist email: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add waitlist rows affected: %w", err)
	}
	return n > 0, nil
}

// CountWaitlistEmails returns the waitlist size.
func (s *Store) CountWaitlistEmails(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM waitlist"); err != nil {
		return 0, fmt.Errorf("count waitlist: %w", err)
	}
	return n, nil
}

// ListWaitlistEmails returns all waitlist emails, oldest signup first.
func (s *Store) ListWaitlistEmails(ctx context.Context) ([]string, error) {
	var emails []string
	if err := s.db.SelectContext(ctx, &emails, "SELECT email FROM waitlist ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return emails, nil
}
