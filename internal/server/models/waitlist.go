// Package models holds the records owned by the storage layer.
package models

import "time"

// WaitlistEmail is one pending or confirmed waitlist signup.
//
// ConfirmationToken is nil once the entry is confirmed; ConfirmedAt is nil
// until then.
type WaitlistEmail struct {
	ID                string     `db:"id"`
	Email             string     `db:"email"`
	CreatedAt         time.Time  `db:"created_at"`
	Confirmed         bool       `db:"confirmed"`
	ConfirmationToken *string    `db:"confirmation_token"`
	ConfirmedAt       *time.Time `db:"confirmed_at"`
}

// Token returns the pending confirmation token or "" when there is none.
func (w *WaitlistEmail) Token() string {
	if w == nil || w.ConfirmationToken == nil {
		return ""
	}
	return *w.ConfirmationToken
}

// Clone returns a deep copy so callers cannot alias stored pointers.
func (w *WaitlistEmail) Clone() *WaitlistEmail {
	if w == nil {
		return nil
	}
	c := *w
	if w.ConfirmationToken != nil {
		token := *w.ConfirmationToken
		c.ConfirmationToken = &token
	}
	if w.ConfirmedAt != nil {
		at := *w.ConfirmedAt
		c.ConfirmedAt = &at
	}
	return &c
}

// NewWaitlistEmail carries the caller supplied fields of a signup.
type NewWaitlistEmail struct {
	Email string
}
