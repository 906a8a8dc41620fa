// Package api serves the journal over HTTP for clients other than the TUI.
// Every route except sign in, sign up and /health needs a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/sadopc/mindjournal/internal/auth"
	"github.com/sadopc/mindjournal/internal/errmsg"
	"github.com/sadopc/mindjournal/internal/logger"
	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

type ctxKey int

const (
	userKey ctxKey = iota
	langKey
)

type Server struct {
	store  *store.Store
	auth   *auth.Provider
	router *mux.Router
	now    func() time.Time
}

func New(s *store.Store, p *auth.Provider) *Server {
	srv := &Server{store: s, auth: p, router: mux.NewRouter(), now: time.Now}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/signin", s.handleSignIn).Methods(http.MethodPost)

	priv := r.PathPrefix("/api").Subrouter()
	priv.Use(s.requireUser)

	priv.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	priv.HandleFunc("/me", s.handleUpdateProfile).Methods(http.MethodPut)
	priv.HandleFunc("/me", s.handleDeleteAccount).Methods(http.MethodDelete)
	priv.HandleFunc("/me/password", s.handleChangePassword).Methods(http.MethodPut)

	priv.HandleFunc("/entries", s.handleListEntries).Methods(http.MethodGet)
	priv.HandleFunc("/entries", s.handleCreateEntry).Methods(http.MethodPost)
	priv.HandleFunc("/entries/{id}", s.handleGetEntry).Methods(http.MethodGet)
	priv.HandleFunc("/entries/{id}", s.handleUpdateEntry).Methods(http.MethodPut)
	priv.HandleFunc("/entries/{id}", s.handleDeleteEntry).Methods(http.MethodDelete)
	priv.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	priv.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)
	priv.HandleFunc("/events", s.handleCreateEvent).Methods(http.MethodPost)
	priv.HandleFunc("/events/{id}", s.handleGetEvent).Methods(http.MethodGet)
	priv.HandleFunc("/events/{id}", s.handleUpdateEvent).Methods(http.MethodPut)
	priv.HandleFunc("/events/{id}", s.handleDeleteEvent).Methods(http.MethodDelete)

	priv.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	priv.HandleFunc("/settings", s.handleUpdateSettings).Methods(http.MethodPut)
	priv.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs until ctx is cancelled, then drains for up to five
// seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// requireUser resolves the bearer token and the user's language.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.fail(w, r, http.StatusUnauthorized, auth.ErrNoSession)
			return
		}
		u, err := s.auth.Verify(token)
		if err != nil {
			s.fail(w, r, statusFor(err), err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, u)
		if st, err := s.store.GetSettings(u.ID); err == nil && st != nil {
			ctx = context.WithValue(ctx, langKey, st.Language)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(r *http.Request) *store.User {
	u, _ := r.Context().Value(userKey).(*store.User)
	return u
}

// language prefers the user's saved setting, then Accept-Language.
func language(r *http.Request) string {
	if lang, ok := r.Context().Value(langKey).(string); ok && lang != "" {
		return lang
	}
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Accept-Language")), "en") {
		return store.LangEN
	}
	return store.LangJA
}

type fieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	lang := language(r)
	body := errorBody{Error: errmsg.Message(err, lang)}
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			body.Fields = append(body.Fields, fieldError{Field: fe.Field, Code: string(fe.Code), Message: fe.Message(lang)})
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error("api request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var verrs validate.Errors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailUnconfirmed):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, auth.ErrAlreadyRegistered), errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNotConnected):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("api response not written", "error", err)
	}
}

var errBadBody = validate.Errors{{Field: "body", Code: validate.CodeInvalidChoice}}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !s.auth.Connected() {
		status = "disconnected"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
