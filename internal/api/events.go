package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sadopc/mindjournal/internal/calendar"
	"github.com/sadopc/mindjournal/internal/export"
	"github.com/sadopc/mindjournal/internal/logger"
	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

// eventRequest leaves the reminder fields optional; missing ones take the
// user's notification defaults.
type eventRequest struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Location            string    `json:"location"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	AllDay              bool      `json:"all_day"`
	NotificationEnabled *bool     `json:"notification_enabled"`
	NotificationMinutes *int      `json:"notification_minutes"`
}

func (req eventRequest) validate(st *store.UserSettings) (validate.EventInput, error) {
	in := validate.EventInput{
		Title:               req.Title,
		Description:         req.Description,
		Location:            req.Location,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		AllDay:              req.AllDay,
		NotificationEnabled: st.NotificationsEnabled,
		NotificationMinutes: st.DefaultNotificationMinutes,
	}
	if req.NotificationEnabled != nil {
		in.NotificationEnabled = *req.NotificationEnabled
	}
	if req.NotificationMinutes != nil {
		in.NotificationMinutes = *req.NotificationMinutes
	}
	return validate.Event(in, st.Location())
}

func (s *Server) eventFor(r *http.Request) (*store.Event, error) {
	e, err := s.store.GetEvent(mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if e.UserID != userFrom(r).ID {
		return nil, store.ErrNotFound
	}
	return e, nil
}

var (
	errBadMonth = validate.Errors{{Field: "month", Code: validate.CodeInvalidDate}}
	errBadDate  = validate.Errors{{Field: "date", Code: validate.CodeInvalidDate}}
)

// handleListEvents serves ?month=YYYY-MM, ?date=YYYY-MM-DD or, with neither,
// every event of the user. Dates are read in the user's timezone.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r).ID
	st, err := s.store.GetOrCreateSettings(uid)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	loc := st.Location()

	var events []store.Event
	q := r.URL.Query()
	switch {
	case q.Get("month") != "":
		ref, perr := time.ParseInLocation("2006-01", q.Get("month"), loc)
		if perr != nil {
			s.fail(w, r, http.StatusBadRequest, errBadMonth)
			return
		}
		events, err = calendar.MonthEvents(s.store, uid, ref)
	case q.Get("date") != "":
		day, perr := time.ParseInLocation(validate.DateLayout, q.Get("date"), loc)
		if perr != nil {
			s.fail(w, r, http.StatusBadRequest, errBadDate)
			return
		}
		events, err = calendar.ForDate(s.store, uid, day)
	default:
		events, err = s.store.ListEvents(uid, nil)
	}
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r).ID
	var req eventRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	st, err := s.store.GetOrCreateSettings(uid)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	in, err := req.validate(st)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	e, err := s.store.CreateEvent(store.Event{
		UserID:              uid,
		Title:               in.Title,
		Description:         in.Description,
		Location:            in.Location,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		AllDay:              in.AllDay,
		NotificationEnabled: in.NotificationEnabled,
		NotificationMinutes: in.NotificationMinutes,
	})
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.eventFor(r)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.eventFor(r)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	var req eventRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	// Omitted reminder fields keep the stored values on update.
	if req.NotificationEnabled == nil {
		req.NotificationEnabled = &e.NotificationEnabled
	}
	if req.NotificationMinutes == nil {
		req.NotificationMinutes = &e.NotificationMinutes
	}
	st, err := s.store.GetOrCreateSettings(e.UserID)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	in, err := req.validate(st)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	updated, err := s.store.UpdateEvent(e.ID, store.EventPatch{
		Title:               &in.Title,
		Description:         &in.Description,
		Location:            &in.Location,
		StartDate:           &in.StartDate,
		EndDate:             &in.EndDate,
		AllDay:              &in.AllDay,
		NotificationEnabled: &in.NotificationEnabled,
		NotificationMinutes: &in.NotificationMinutes,
	})
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.eventFor(r)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	if err := s.store.DeleteEvent(e.ID); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsRequest struct {
	Theme                      *string `json:"theme"`
	Language                   *string `json:"language"`
	NotificationsEnabled       *bool   `json:"notifications_enabled"`
	EmailNotifications         *bool   `json:"email_notifications"`
	DefaultNotificationMinutes *int    `json:"default_notification_minutes"`
	Timezone                   *string `json:"timezone"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetOrCreateSettings(userFrom(r).ID)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	uid := userFrom(r).ID
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := validate.Settings(store.SettingsPatch{
		Theme:                      req.Theme,
		Language:                   req.Language,
		NotificationsEnabled:       req.NotificationsEnabled,
		EmailNotifications:         req.EmailNotifications,
		DefaultNotificationMinutes: req.DefaultNotificationMinutes,
		Timezone:                   req.Timezone,
	})
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.GetOrCreateSettings(uid); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	st, err := s.store.UpdateSettings(uid, p)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

var errBadFormat = validate.Errors{{Field: "format", Code: validate.CodeInvalidChoice}}

// handleExport streams the user's data as ?format=json (default), csv
// (entries only) or ics (events only).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "ics" {
		s.fail(w, r, http.StatusBadRequest, errBadFormat)
		return
	}

	entries, err := s.store.ListEntries(u.ID)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	events, err := s.store.ListEvents(u.ID, nil)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	st, err := s.store.GetOrCreateSettings(u.ID)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}

	now := s.now()
	name := export.Filename(now)
	switch format {
	case "csv":
		name = name[:len(name)-len(".json")] + ".csv"
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		err = export.WriteCSV(w, entries, st.Location())
	case "ics":
		name = name[:len(name)-len(".json")] + ".ics"
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		err = export.WriteICS(w, events, st.Location())
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		err = export.EncodeJSON(w, export.Build(u, entries, events, now))
	}
	if err != nil {
		logger.Error("export not written", "user", u.ID, "format", format, "error", err)
	}
}
