package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sadopc/mindjournal/internal/api"
	"github.com/sadopc/mindjournal/internal/auth"
	"github.com/sadopc/mindjournal/internal/logger"
	"github.com/sadopc/mindjournal/internal/reminder"
	"github.com/sadopc/mindjournal/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	return tui.Run(&tui.Deps{
		Store:  ctx.Store,
		Auth:   ctx.Auth,
		State:  ctx.State,
		Config: ctx.Config,
	})
}

// ServeCmd runs the HTTP API and, when enabled, logs due reminders.
type ServeCmd struct {
	Listen string `help:"Listen address; defaults to the config value." short:"l"`
}

func (c *ServeCmd) Run(ctx *Context) error {
	addr := c.Listen
	if addr == "" {
		addr = ctx.Config.Listen
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ctx.Config.Reminders.Enabled {
		sched, err := reminder.NewScheduler(ctx.Store, reminder.LogNotifier{}, ctx.Config.Reminders.Schedule)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("reminders scheduled", "schedule", ctx.Config.Reminders.Schedule)
	}

	// Requests carry their own tokens; the server keeps no session.
	provider := auth.NewFromConfig(ctx.Store, ctx.Config, nil, nil)
	return api.New(ctx.Store, provider).ListenAndServe(sigCtx, addr)
}
