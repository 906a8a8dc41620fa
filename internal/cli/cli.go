// Package cli holds the kong commands of the mindjournal binary.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sadopc/mindjournal/internal/auth"
	"github.com/sadopc/mindjournal/internal/config"
	"github.com/sadopc/mindjournal/internal/session"
	"github.com/sadopc/mindjournal/internal/store"
)

// Context is passed to every command's Run method.
type Context struct {
	Config *config.Config
	Store  *store.Store
	Auth   *auth.Provider
	State  *session.State
	Out    io.Writer
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Credentials are the optional sign-in flags shared by data commands.
// Without them the session saved by the TUI is used.
type Credentials struct {
	Email    string `help:"Account email." short:"e"`
	Password string `help:"Account password." env:"MINDJOURNAL_PASSWORD"`
}

func (c Credentials) user(ctx *Context) (*store.User, error) {
	if c.Email != "" {
		if c.Password == "" {
			return nil, errors.New("--password (or MINDJOURNAL_PASSWORD) is required with --email")
		}
		u, _, err := ctx.Auth.SignIn(c.Email, c.Password)
		return u, err
	}
	u, err := ctx.Auth.Restore()
	if errors.Is(err, auth.ErrNoSession) {
		return nil, fmt.Errorf("not signed in: pass --email and --password or sign in with the TUI first")
	}
	return u, err
}
