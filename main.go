package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/sadopc/mindjournal/internal/auth"
	"github.com/sadopc/mindjournal/internal/cli"
	"github.com/sadopc/mindjournal/internal/config"
	"github.com/sadopc/mindjournal/internal/logger"
	"github.com/sadopc/mindjournal/internal/session"
	"github.com/sadopc/mindjournal/internal/store"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" env:"MINDJOURNAL_CONFIG"`
	Debug   bool   `help:"Log debug output to stderr as well as the log file."`

	Tui     cli.TuiCmd     `cmd:"" help:"Launch the interactive journal." default:"1"`
	Serve   cli.ServeCmd   `cmd:"" help:"Serve the HTTP API."`
	Signup  cli.SignupCmd  `cmd:"" help:"Create an account."`
	Signout cli.SignoutCmd `cmd:"" help:"Forget the saved session."`
	Export  cli.ExportCmd  `cmd:"" help:"Export entries and events."`
	Import  cli.ImportCmd  `cmd:"" help:"Check a JSON export and summarize it."`
	Stats   cli.StatsCmd   `cmd:"" help:"Print journal statistics."`
	User    struct {
		Confirm cli.UserConfirmCmd `cmd:"" help:"Mark an account's email as confirmed."`
	} `cmd:"" help:"Manage accounts."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("mindjournal"),
		kong.Description("Mood journal and calendar for the terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": "v0.1.0"},
	)

	cfgPath := CLI.Config
	if cfgPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: filepath.Dir(cfgPath)}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}

	s, err := store.Open(cfg.BackendURL, cfg.AccessKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	var sessions auth.SessionStore
	if auth.KeyringAvailable() {
		sessions = auth.NewKeyringSessions()
	} else {
		logger.Warn("OS keyring unavailable; sessions will not persist")
	}
	state := session.New()

	err = kctx.Run(&cli.Context{
		Config: cfg,
		Store:  s,
		Auth:   auth.NewFromConfig(s, cfg, sessions, state),
		State:  state,
	})
	if err != nil {
		logger.Error("command failed", "cmd", kctx.Command(), "err", err)
		s.Close()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
