package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownToken = errors.New("unknown or expired confirmation")

type PendingKind string

const (
	PendingDelete    PendingKind = "delete"
	PendingDeleteAll PendingKind = "delete_all"
)

// Pending is a destructive operation waiting for the user to confirm it.
type Pending struct {
	Token     string
	Kind      PendingKind
	ItemID    string
	Prompt    string
	CreatedAt time.Time
}

// Confirmations tracks pending destructive operations. It is not safe for
// concurrent use; callers hold their own lock.
type Confirmations struct {
	ttl     time.Duration
	pending map[string]Pending
}

func NewConfirmations(ttl time.Duration) *Confirmations {
	return &Confirmations{ttl: ttl, pending: make(map[string]Pending)}
}

// Request registers an operation and returns the token that resolves it.
func (c *Confirmations) Request(kind PendingKind, itemID, prompt string, now time.Time) Pending {
	c.expire(now)
	p := Pending{
		Token:     uuid.NewString(),
		Kind:      kind,
		ItemID:    itemID,
		Prompt:    prompt,
		CreatedAt: now,
	}
	c.pending[p.Token] = p
	return p
}

// Resolve removes the token and returns the operation it stood for.
func (c *Confirmations) Resolve(token string, now time.Time) (Pending, error) {
	c.expire(now)
	p, ok := c.pending[token]
	if !ok {
		return Pending{}, ErrUnknownToken
	}
	delete(c.pending, token)
	return p, nil
}

// Cancel drops the token without running anything.
func (c *Confirmations) Cancel(token string) error {
	if _, ok := c.pending[token]; !ok {
		return ErrUnknownToken
	}
	delete(c.pending, token)
	return nil
}

func (c *Confirmations) Len() int {
	return len(c.pending)
}

func (c *Confirmations) expire(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for token, p := range c.pending {
		if now.Sub(p.CreatedAt) > c.ttl {
			delete(c.pending, token)
		}
	}
}
