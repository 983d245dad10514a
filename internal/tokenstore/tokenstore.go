// Package tokenstore is the single accessor for the persisted auth token.
// Forms write it on login; route guards and logout read or clear it.
package tokenstore

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Key is the fixed name the token is stored under.
const Key = "token"

type Store interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// Sessions persists tokens in the browser's server-side session. Writes are
// last-writer-wins.
type Sessions struct {
	store *session.Store
}

func New(store *session.Store) *Sessions {
	return &Sessions{store: store}
}

// For binds the store to the browser that sent c.
func (s *Sessions) For(c *fiber.Ctx) Store {
	return &sessionToken{store: s.store, c: c}
}

type sessionToken struct {
	store *session.Store
	c     *fiber.Ctx
}

func (t *sessionToken) Get() (string, error) {
	sess, err := t.store.Get(t.c)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	token, _ := sess.Get(Key).(string)
	return token, nil
}

// Set stores token under a fresh session id to avoid session fixation.
func (t *sessionToken) Set(token string) error {
	sess, err := t.store.Get(t.c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("regenerate session: %w", err)
	}
	sess.Set(Key, token)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (t *sessionToken) Clear() error {
	sess, err := t.store.Get(t.c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
