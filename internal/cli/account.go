package cli

import (
	"errors"
	"fmt"

	"github.com/sadopc/mindjournal/internal/errmsg"
	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

type SignupCmd struct {
	Email    string `help:"Account email." required:""`
	Name     string `help:"Full name." required:""`
	Password string `help:"Password, at least six characters." required:"" env:"MINDJOURNAL_PASSWORD"`
}

func (c *SignupCmd) Run(ctx *Context) error {
	in, err := validate.SignUp(validate.SignUpInput{
		FullName:        c.Name,
		Email:           c.Email,
		Password:        c.Password,
		ConfirmPassword: c.Password,
	})
	if err != nil {
		return errors.New(errmsg.Message(err, store.LangEN))
	}
	u, token, err := ctx.Auth.SignUp(in.Email, in.Password, in.FullName)
	if err != nil {
		return errors.New(errmsg.Message(err, store.LangEN))
	}
	if token == "" {
		fmt.Fprintf(ctx.out(), "Created %s. Confirm the address with `mindjournal user confirm %s` before signing in.\n", u.Email, u.Email)
		return nil
	}
	fmt.Fprintf(ctx.out(), "Created and signed in as %s.\n", u.Email)
	return nil
}

type UserConfirmCmd struct {
	Email string `arg:"" help:"Email address to mark as confirmed."`
}

func (c *UserConfirmCmd) Run(ctx *Context) error {
	if err := ctx.Auth.ConfirmEmail(c.Email); err != nil {
		return errors.New(errmsg.Message(err, store.LangEN))
	}
	fmt.Fprintf(ctx.out(), "Confirmed %s.\n", c.Email)
	return nil
}

type SignoutCmd struct{}

func (c *SignoutCmd) Run(ctx *Context) error {
	if err := ctx.Auth.SignOut(); err != nil {
		return err
	}
	fmt.Fprintln(ctx.out(), "Signed out.")
	return nil
}
