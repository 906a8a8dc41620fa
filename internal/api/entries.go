package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sadopc/mindjournal/internal/stats"
	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

type entryRequest struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	EmotionScore int      `json:"emotion_score"`
	Tags         []string `json:"tags"`
}

func (req entryRequest) validate() (validate.EntryInput, error) {
	return validate.Entry(validate.EntryInput{
		Title:        req.Title,
		Content:      req.Content,
		EmotionScore: req.EmotionScore,
		Tags:         req.Tags,
	})
}

// entryFor loads the entry named in the path. Entries of other users are
// reported as not found.
func (s *Server) entryFor(r *http.Request) (*store.JournalEntry, error) {
	e, err := s.store.GetEntry(mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if e.UserID != userFrom(r).ID {
		return nil, store.ErrNotFound
	}
	return e, nil
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r).ID
	var (
		entries []store.JournalEntry
		err     error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		entries, err = s.store.SearchEntries(uid, q)
	} else {
		entries, err = s.store.ListEntries(uid)
	}
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	if entries == nil {
		entries = []store.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	in, err := req.validate()
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	e, err := s.store.CreateEntry(store.JournalEntry{
		UserID:       userFrom(r).ID,
		Title:        in.Title,
		Content:      in.Content,
		EmotionScore: in.EmotionScore,
		Tags:         in.Tags,
	})
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFor(r)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFor(r)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	var req entryRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	in, err := req.validate()
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	updated, err := s.store.UpdateEntry(e.ID, store.EntryPatch{
		Title:        &in.Title,
		Content:      &in.Content,
		EmotionScore: &in.EmotionScore,
		Tags:         &in.Tags,
	})
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.entryFor(r)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	if err := s.store.DeleteEntry(e.ID); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r).ID
	entries, err := s.store.ListEntries(uid)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	st, err := s.store.GetOrCreateSettings(uid)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	d, err := stats.Compute(entries, s.now().In(st.Location()))
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
