package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/mindjournal/internal/auth"
	"github.com/sadopc/mindjournal/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	p := auth.New(st, auth.Options{Secret: "test-key", Connected: true, Cost: bcrypt.MinCost})
	return New(st, p)
}

func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func signUp(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"full_name":        "Hana Sato",
		"email":            email,
		"password":         "secret123",
		"confirm_password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup = %d %s", rec.Code, rec.Body)
	}
	resp := decodeBody[sessionResponse](t, rec)
	if resp.Token == "" {
		t.Fatal("signup returned no token")
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv, "hana@example.com")

	rec := do(t, srv, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "hana@example.com", "password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin = %d %s", rec.Code, rec.Body)
	}
	token := decodeBody[sessionResponse](t, rec).Token

	rec = do(t, srv, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me = %d", rec.Code)
	}
	if u := decodeBody[store.User](t, rec); u.Email != "hana@example.com" || u.FullName != "Hana Sato" {
		t.Fatalf("me = %+v", u)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv, "hana@example.com")

	rec := do(t, srv, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "hana@example.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[errorBody](t, rec)
	if body.Error != "メールアドレスまたはパスワードが正しくありません" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestSignUpValidation(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(
		`{"full_name":"H","email":"nope","password":"123","confirm_password":"456"}`))
	req.Header.Set("Accept-Language", "en-US")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[errorBody](t, rec)
	fields := map[string]string{}
	for _, f := range body.Fields {
		fields[f.Field] = f.Code
	}
	for _, want := range []string{"full_name", "email", "password", "confirm_password"} {
		if _, ok := fields[want]; !ok {
			t.Errorf("missing field error %s in %+v", want, body.Fields)
		}
	}
	if body.Error != "Full name must be at least 2 characters" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestDuplicateSignUp(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv, "hana@example.com")
	rec := do(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"full_name": "Hana", "email": "hana@example.com", "password": "secret123", "confirm_password": "secret123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	for _, tok := range []string{"", "garbage"} {
		rec := do(t, srv, http.MethodGet, "/api/entries", tok, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d", tok, rec.Code)
		}
	}
}

func TestEntriesCRUD(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "hana@example.com")

	rec := do(t, srv, http.MethodPost, "/api/entries", token, map[string]any{
		"title": "Morning", "content": "a calm walk by the river", "emotion_score": 8, "tags": []string{" Walk ", "walk", "Calm"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	created := decodeBody[store.JournalEntry](t, rec)
	if len(created.Tags) != 2 || created.Tags[0] != "walk" || created.Tags[1] != "calm" {
		t.Fatalf("tags = %v", created.Tags)
	}

	rec = do(t, srv, http.MethodGet, "/api/entries?q=river", token, nil)
	if list := decodeBody[[]store.JournalEntry](t, rec); len(list) != 1 {
		t.Fatalf("search = %d entries", len(list))
	}
	rec = do(t, srv, http.MethodGet, "/api/entries?q=mountain", token, nil)
	if rec.Body.String() != "[]\n" {
		t.Fatalf("empty search = %q", rec.Body)
	}

	rec = do(t, srv, http.MethodPut, "/api/entries/"+created.ID, token, map[string]any{
		"title": "Evening", "content": "a calm walk by the river", "emotion_score": 6, "tags": []string{},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body)
	}
	if u := decodeBody[store.JournalEntry](t, rec); u.Title != "Evening" || u.EmotionScore != 6 {
		t.Fatalf("updated = %+v", u)
	}

	rec = do(t, srv, http.MethodDelete, "/api/entries/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/entries/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted = %d", rec.Code)
	}
}

func TestEntryValidation(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "hana@example.com")
	rec := do(t, srv, http.MethodPost, "/api/entries", token, map[string]any{
		"title": "", "content": "short", "emotion_score": 11,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody[errorBody](t, rec); len(body.Fields) != 3 {
		t.Fatalf("fields = %+v", body.Fields)
	}
}

func TestEntriesOfOtherUserHidden(t *testing.T) {
	srv := newTestServer(t)
	a := signUp(t, srv, "a@example.com")
	b := signUp(t, srv, "b@example.com")

	rec := do(t, srv, http.MethodPost, "/api/entries", a, map[string]any{
		"title": "Private", "content": "only mine to read", "emotion_score": 5,
	})
	id := decodeBody[store.JournalEntry](t, rec).ID

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rec := do(t, srv, method, "/api/entries/"+id, b, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s other user's entry = %d", method, rec.Code)
		}
	}
	if rec := do(t, srv, http.MethodGet, "/api/entries", b, nil); rec.Body.String() != "[]\n" {
		t.Fatalf("list leaked: %s", rec.Body)
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "hana@example.com")
	for _, score := range []int{4, 8} {
		do(t, srv, http.MethodPost, "/api/entries", token, map[string]any{
			"title": "Day", "content": "something happened today", "emotion_score": score, "tags": []string{"work"},
		})
	}
	rec := do(t, srv, http.MethodGet, "/api/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d %s", rec.Code, rec.Body)
	}
	var d struct {
		TotalEntries   int     `json:"total_entries"`
		AverageEmotion float64 `json:"average_emotion"`
		TopTags        []struct {
			Tag   string `json:"tag"`
			Count int    `json:"count"`
		} `json:"top_tags"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if d.TotalEntries != 2 || d.AverageEmotion != 6 {
		t.Fatalf("stats = %+v", d)
	}
	if len(d.TopTags) != 1 || d.TopTags[0].Tag != "work" || d.TopTags[0].Count != 2 {
		t.Fatalf("top tags = %+v", d.TopTags)
	}
}

func TestEventsFlow(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "hana@example.com")

	tz := "UTC"
	if rec := do(t, srv, http.MethodPut, "/api/settings", token, map[string]any{"timezone": tz, "default_notification_minutes": 30}); rec.Code != http.StatusOK {
		t.Fatalf("settings = %d %s", rec.Code, rec.Body)
	}

	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	rec := do(t, srv, http.MethodPost, "/api/events", token, map[string]any{
		"title": "Dentist", "start_date": start, "end_date": start.Add(time.Hour),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body)
	}
	ev := decodeBody[store.Event](t, rec)
	if !ev.NotificationEnabled || ev.NotificationMinutes != 30 {
		t.Fatalf("defaults not applied: %+v", ev)
	}

	for _, path := range []string{"/api/events?month=2026-10", "/api/events?date=2026-10-20", "/api/events"} {
		rec := do(t, srv, http.MethodGet, path, token, nil)
		if list := decodeBody[[]store.Event](t, rec); len(list) != 1 {
			t.Errorf("%s = %d events", path, len(list))
		}
	}
	rec = do(t, srv, http.MethodGet, "/api/events?month=2026-11", token, nil)
	if rec.Body.String() != "[]\n" {
		t.Fatalf("november = %s", rec.Body)
	}
	if rec := do(t, srv, http.MethodGet, "/api/events?month=oct", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad month = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPut, "/api/events/"+ev.ID, token, map[string]any{
		"title": "Dentist", "start_date": start, "end_date": start.Add(-time.Hour),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("end before start = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodDelete, "/api/events/"+ev.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
}

func TestSettingsValidation(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "hana@example.com")

	rec := do(t, srv, http.MethodGet, "/api/settings", token, nil)
	if st := decodeBody[store.UserSettings](t, rec); st.Language != store.LangJA || st.Theme != store.ThemeLight {
		t.Fatalf("defaults = %+v", st)
	}

	rec = do(t, srv, http.MethodPut, "/api/settings", token, map[string]any{"theme": "neon"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPut, "/api/settings", token, map[string]any{"language": "en"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// Errors now come back in English.
	rec = do(t, srv, http.MethodGet, "/api/entries/missing", token, nil)
	if body := decodeBody[errorBody](t, rec); body.Error != "The item was not found" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "hana@example.com")
	do(t, srv, http.MethodPost, "/api/entries", token, map[string]any{
		"title": "Morning", "content": "a calm walk by the river", "emotion_score": 8,
	})

	rec := do(t, srv, http.MethodGet, "/api/export", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "mindjournal-data-") {
		t.Fatalf("disposition = %q", cd)
	}
	for _, key := range []string{`"user"`, `"journal_entries"`, `"events"`, `"exported_at"`} {
		if !strings.Contains(rec.Body.String(), key) {
			t.Errorf("missing %s", key)
		}
	}

	rec = do(t, srv, http.MethodGet, "/api/export?format=csv", token, nil)
	if !strings.HasPrefix(rec.Body.String(), "ID,Created,Updated,Title,Emotion,Tags,Content") {
		t.Fatalf("csv = %q", rec.Body)
	}
	rec = do(t, srv, http.MethodGet, "/api/export?format=ics", token, nil)
	if !strings.Contains(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Fatalf("ics = %q", rec.Body)
	}
	if rec := do(t, srv, http.MethodGet, "/api/export?format=xml", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("xml = %d", rec.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "hana@example.com")

	rec := do(t, srv, http.MethodPut, "/api/me/password", token, map[string]string{
		"password": "secret123", "new_password": "newsecret", "confirm_password": "newsecret",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("password = %d %s", rec.Code, rec.Body)
	}
	rec = do(t, srv, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "hana@example.com", "password": "newsecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin with new password = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPut, "/api/me", token, map[string]string{"full_name": "Hana S.", "email": "hana@example.com"})
	if u := decodeBody[store.User](t, rec); u.FullName != "Hana S." {
		t.Fatalf("profile = %+v", u)
	}

	if rec := do(t, srv, http.MethodDelete, "/api/me", token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete account = %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token after delete = %d", rec.Code)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "hana@example.com")
	rec := do(t, srv, http.MethodPost, "/api/entries", token, map[string]any{"headline": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
