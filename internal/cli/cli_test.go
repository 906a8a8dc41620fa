package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/mindjournal/internal/auth"
	"github.com/sadopc/mindjournal/internal/config"
	"github.com/sadopc/mindjournal/internal/store"
)

func newTestContext(t *testing.T, requireConfirmation bool) (*Context, *bytes.Buffer) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cfg := config.Default()
	cfg.ExportDir = t.TempDir()
	var out bytes.Buffer
	return &Context{
		Config: cfg,
		Store:  s,
		Auth: auth.New(s, auth.Options{
			Secret:              "test-key",
			Connected:           true,
			RequireConfirmation: requireConfirmation,
			Cost:                bcrypt.MinCost,
		}),
		Out: &out,
	}, &out
}

func signup(t *testing.T, ctx *Context) {
	t.Helper()
	cmd := &SignupCmd{Email: "ada@example.com", Name: "Ada Lovelace", Password: "secret1"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestSignupAndConfirm(t *testing.T) {
	ctx, out := newTestContext(t, true)
	signup(t, ctx)
	if !strings.Contains(out.String(), "user confirm ada@example.com") {
		t.Fatalf("expected confirmation hint, got %q", out.String())
	}

	if _, _, err := ctx.Auth.SignIn("ada@example.com", "secret1"); err == nil {
		t.Fatal("unconfirmed account should not sign in")
	}
	if err := (&UserConfirmCmd{Email: "ada@example.com"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ctx.Auth.SignIn("ada@example.com", "secret1"); err != nil {
		t.Fatalf("confirmed account should sign in: %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	ctx, _ := newTestContext(t, false)
	err := (&SignupCmd{Email: "nope", Name: "Ada", Password: "secret1"}).Run(ctx)
	if err == nil || !strings.Contains(strings.ToLower(err.Error()), "email") {
		t.Fatalf("expected an email error, got %v", err)
	}
}

func TestConfirmUnknownUser(t *testing.T) {
	ctx, _ := newTestContext(t, false)
	if err := (&UserConfirmCmd{Email: "ghost@example.com"}).Run(ctx); err == nil {
		t.Fatal("expected not found")
	}
}

func TestCredentialsRequired(t *testing.T) {
	ctx, _ := newTestContext(t, false)
	err := (&StatsCmd{}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "not signed in") {
		t.Fatalf("got %v", err)
	}
	err = (&StatsCmd{Credentials{Email: "ada@example.com"}}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "--password") {
		t.Fatalf("got %v", err)
	}
}

func TestExportAndImport(t *testing.T) {
	ctx, out := newTestContext(t, false)
	signup(t, ctx)
	u, err := ctx.Store.GetUserByEmail("ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Store.CreateEntry(store.JournalEntry{
		UserID: u.ID, Title: "First", Content: "a long enough body", EmotionScore: 7, Tags: []string{"calm"},
	}); err != nil {
		t.Fatal(err)
	}
	creds := Credentials{Email: "ada@example.com", Password: "secret1"}

	for _, format := range []string{"json", "csv", "ics"} {
		path := filepath.Join(t.TempDir(), "out."+format)
		if err := (&ExportCmd{Credentials: creds, Format: format, Out: path}).Run(ctx); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
	}

	// Default path goes to the export dir.
	if err := (&ExportCmd{Credentials: creds, Format: "json"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(ctx.Config.ExportDir, "mindjournal-data-*.json"))
	if len(matches) != 1 {
		t.Fatalf("expected one export in the export dir, got %v", matches)
	}

	out.Reset()
	if err := (&ImportCmd{File: matches[0]}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"ada@example.com", "1 journal entries", "0 events"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("import summary missing %q: %q", want, out.String())
		}
	}
}

func TestStats(t *testing.T) {
	ctx, out := newTestContext(t, false)
	signup(t, ctx)
	u, _ := ctx.Store.GetUserByEmail("ada@example.com")
	for _, score := range []int{4, 8} {
		if _, err := ctx.Store.CreateEntry(store.JournalEntry{
			UserID: u.ID, Title: "Day", Content: "a long enough body", EmotionScore: score, Tags: []string{"walk"},
		}); err != nil {
			t.Fatal(err)
		}
	}

	out.Reset()
	if err := (&StatsCmd{Credentials{Email: "ada@example.com", Password: "secret1"}}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Entries", "2", "6.0 / 10", "#walk (2)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stats missing %q: %q", want, out.String())
		}
	}
}
