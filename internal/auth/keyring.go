package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "mindjournal"
	keyringUser    = "session"
)

var (
	// ErrNoStoredSession is returned when the keyring holds no token.
	ErrNoStoredSession = errors.New("no session stored in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be used.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// SessionStore persists the session token between runs.
type SessionStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// KeyringSessions keeps the token in the OS keyring.
type KeyringSessions struct {
	Service string
	User    string
}

func NewKeyringSessions() *KeyringSessions {
	return &KeyringSessions{Service: keyringService, User: keyringUser}
}

func (k *KeyringSessions) Load() (string, error) {
	token, err := keyring.Get(k.Service, k.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoStoredSession
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

func (k *KeyringSessions) Save(token string) error {
	if token == "" {
		return errors.New("session token cannot be empty")
	}
	if err := keyring.Set(k.Service, k.User, token); err != nil {
		return fmt.Errorf("store session in keyring: %w", err)
	}
	return nil
}

// Clear removes the stored token. A missing token is not an error.
func (k *KeyringSessions) Clear() error {
	err := keyring.Delete(k.Service, k.User)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete session from keyring: %w", err)
	}
	return nil
}

// KeyringAvailable reports whether the OS keyring answers a read.
func KeyringAvailable() bool {
	_, err := keyring.Get(keyringService, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
