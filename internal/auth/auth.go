// Package auth signs users in and out against the store. Passwords are
// bcrypt hashes; sessions are HS256 JWTs signed with the backend access key.
package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/mindjournal/internal/config"
	"github.com/sadopc/mindjournal/internal/logger"
	"github.com/sadopc/mindjournal/internal/session"
	"github.com/sadopc/mindjournal/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailUnconfirmed   = errors.New("email not confirmed")
	ErrRateLimited        = errors.New("too many requests")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidEmail       = errors.New("unable to validate email address")
	ErrNotConnected       = errors.New("backend is not configured")
	ErrNoSession          = errors.New("no active session")
)

const (
	minPasswordLength = 6
	tokenIssuer       = "mindjournal"
)

// Users is the part of the store the provider needs.
type Users interface {
	CreateUser(email, fullName, passwordHash string, confirmed bool) (*store.User, error)
	GetUser(id string) (*store.User, error)
	GetUserByEmail(email string) (*store.User, error)
	UpdateProfile(id, fullName, email string) (*store.User, error)
	UpdatePasswordHash(id, hash string) error
	ConfirmEmail(email string) error
	DeleteUser(id string) error
}

type Options struct {
	// Secret signs session tokens. Sign in and sign up are refused while
	// Connected is false.
	Secret              string
	Connected           bool
	TTL                 time.Duration
	RequireConfirmation bool
	MaxFailedAttempts   int
	LockoutWindow       time.Duration

	// Sessions persists the token between runs; nil disables persistence.
	Sessions SessionStore
	// State receives the signed-in user; nil when no views are attached.
	State *session.State
	// Now defaults to time.Now.
	Now func() time.Time
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

type Provider struct {
	users   Users
	opts    Options
	limiter *limiter
}

func New(users Users, opts Options) *Provider {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.MaxFailedAttempts <= 0 {
		opts.MaxFailedAttempts = 5
	}
	if opts.LockoutWindow <= 0 {
		opts.LockoutWindow = time.Minute
	}
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	return &Provider{
		users:   users,
		opts:    opts,
		limiter: newLimiter(opts.MaxFailedAttempts, opts.LockoutWindow),
	}
}

// NewFromConfig builds a provider from the loaded configuration.
func NewFromConfig(users Users, cfg *config.Config, sessions SessionStore, state *session.State) *Provider {
	if !cfg.Session.Persist {
		sessions = nil
	}
	return New(users, Options{
		Secret:              cfg.AccessKey,
		Connected:           cfg.Connected(),
		TTL:                 cfg.SessionTTL(),
		RequireConfirmation: cfg.Auth.RequireConfirmation,
		MaxFailedAttempts:   cfg.Auth.MaxFailedAttempts,
		LockoutWindow:       cfg.LockoutWindow(),
		Sessions:            sessions,
		State:               state,
	})
}

func (p *Provider) Connected() bool {
	return p.opts.Connected
}

// SignIn checks the password and starts a session.
func (p *Provider) SignIn(email, password string) (*store.User, string, error) {
	if !p.opts.Connected {
		return nil, "", ErrNotConnected
	}
	key := strings.ToLower(strings.TrimSpace(email))
	now := p.opts.Now()
	if p.limiter.blocked(key, now) {
		logger.Warn("sign in rate limited", "email", key)
		return nil, "", ErrRateLimited
	}

	p.setLoading(true)
	u, err := p.users.GetUserByEmail(key)
	if errors.Is(err, store.ErrNotFound) {
		p.limiter.fail(key, now)
		p.setLoading(false)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		p.setLoading(false)
		logger.Error("sign in lookup failed", "op", "sign in", "error", err)
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		p.limiter.fail(key, now)
		p.setLoading(false)
		return nil, "", ErrInvalidCredentials
	}
	if p.opts.RequireConfirmation && !u.EmailConfirmed {
		p.setLoading(false)
		return nil, "", ErrEmailUnconfirmed
	}
	p.limiter.reset(key)

	token, err := p.start(u)
	if err != nil {
		p.setLoading(false)
		return nil, "", err
	}
	logger.Info("signed in", "user", u.ID)
	return u, token, nil
}

// SignUp registers a user. When email confirmation is required the user is
// created unconfirmed and no session is started, so the token is empty.
func (p *Provider) SignUp(email, password, fullName string) (*store.User, string, error) {
	if !p.opts.Connected {
		return nil, "", ErrNotConnected
	}
	email = strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, "", ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}

	p.setLoading(true)
	defer p.setLoading(false)

	if _, err := p.users.GetUserByEmail(email); err == nil {
		return nil, "", ErrAlreadyRegistered
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.opts.Cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	u, err := p.users.CreateUser(email, strings.TrimSpace(fullName), string(hash), !p.opts.RequireConfirmation)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, "", ErrAlreadyRegistered
	}
	if err != nil {
		logger.Error("sign up failed", "op", "create user", "error", err)
		return nil, "", err
	}
	logger.Info("signed up", "user", u.ID, "confirmed", u.EmailConfirmed)

	if p.opts.RequireConfirmation {
		return u, "", nil
	}
	token, err := p.start(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// SignOut ends the session and clears any persisted token.
func (p *Provider) SignOut() error {
	var err error
	if p.opts.Sessions != nil {
		err = p.opts.Sessions.Clear()
	}
	if p.opts.State != nil {
		p.opts.State.SignOut()
	}
	return err
}

// Restore resumes the session saved by a previous run.
func (p *Provider) Restore() (*store.User, error) {
	if !p.opts.Connected {
		return nil, ErrNotConnected
	}
	if p.opts.Sessions == nil {
		return nil, ErrNoSession
	}
	token, err := p.opts.Sessions.Load()
	if errors.Is(err, ErrNoStoredSession) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	u, err := p.Verify(token)
	if err != nil {
		if cerr := p.opts.Sessions.Clear(); cerr != nil {
			logger.Warn("stale session not cleared", "error", cerr)
		}
		return nil, err
	}
	if p.opts.State != nil {
		p.opts.State.SignIn(u, token)
	}
	return u, nil
}

// Verify parses token and returns its user. Any invalid, expired or orphaned
// token yields ErrNoSession.
func (p *Provider) Verify(token string) (*store.User, error) {
	if !p.opts.Connected {
		return nil, ErrNotConnected
	}
	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(p.opts.Secret), nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrNoSession
	}
	u, err := p.users.GetUser(claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	return u, err
}

// Current returns the signed-in user of the attached state, if any.
func (p *Provider) Current() *store.User {
	if p.opts.State == nil {
		return nil
	}
	return p.opts.State.Snapshot().User
}

func (p *Provider) UpdateProfile(userID, fullName, email string) (*store.User, error) {
	u, err := p.users.UpdateProfile(userID, strings.TrimSpace(fullName), strings.TrimSpace(email))
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, err
	}
	p.refresh(u)
	return u, nil
}

func (p *Provider) ChangePassword(userID, current, next string) error {
	u, err := p.users.GetUser(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	if utf8.RuneCountInString(next) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), p.opts.Cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.users.UpdatePasswordHash(userID, string(hash))
}

func (p *Provider) ConfirmEmail(email string) error {
	return p.users.ConfirmEmail(email)
}

// DeleteAccount removes the user and all their data, then signs out when
// the user is the current one.
func (p *Provider) DeleteAccount(userID string) error {
	if err := p.users.DeleteUser(userID); err != nil {
		return err
	}
	logger.Info("account deleted", "user", userID)
	if cur := p.Current(); cur != nil && cur.ID == userID {
		return p.SignOut()
	}
	return nil
}

// Issue signs a token for u without touching the session store.
func (p *Provider) Issue(u *store.User) (string, error) {
	now := p.opts.Now()
	claims := jwt.StandardClaims{
		Subject:   u.ID,
		Issuer:    tokenIssuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(p.opts.TTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.opts.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (p *Provider) start(u *store.User) (string, error) {
	token, err := p.Issue(u)
	if err != nil {
		return "", err
	}
	if p.opts.Sessions != nil {
		if err := p.opts.Sessions.Save(token); err != nil {
			logger.Warn("session not persisted", "error", err)
		}
	}
	if p.opts.State != nil {
		p.opts.State.SignIn(u, token)
	}
	return token, nil
}

func (p *Provider) refresh(u *store.User) {
	if cur := p.Current(); cur != nil && cur.ID == u.ID {
		p.opts.State.SetUser(u)
	}
}

func (p *Provider) setLoading(v bool) {
	if p.opts.State != nil {
		p.opts.State.SetLoading(v)
	}
}
