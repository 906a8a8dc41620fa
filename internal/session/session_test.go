package session

import (
	"testing"

	"github.com/sadopc/mindjournal/internal/store"
)

func TestSubscribeNotifies(t *testing.T) {
	s := New()
	var got []Snapshot
	unsub := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	s.SetLoading(true)
	s.SignIn(&store.User{ID: "u1", Email: "a@example.com"}, "tok")

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if !got[0].Loading || got[0].SignedIn() {
		t.Fatalf("first snapshot = %+v", got[0])
	}
	if got[1].Loading || !got[1].SignedIn() || got[1].Token != "tok" {
		t.Fatalf("second snapshot = %+v", got[1])
	}

	unsub()
	unsub()
	s.SignOut()
	if len(got) != 2 {
		t.Fatal("unsubscribed listener was called")
	}
	if s.Snapshot().SignedIn() {
		t.Fatal("state should be signed out")
	}
}

func TestSubscribersInOrder(t *testing.T) {
	s := New()
	var order []string
	s.Subscribe(func(Snapshot) { order = append(order, "a") })
	unsubB := s.Subscribe(func(Snapshot) { order = append(order, "b") })
	s.Subscribe(func(Snapshot) { order = append(order, "c") })
	unsubB()

	s.SetLoading(false)
	if len(order) != 2 || order[0] != "a" || order[1] != "c" {
		t.Fatalf("order = %v", order)
	}
}

func TestSubscriberMayReadState(t *testing.T) {
	s := New()
	var seen string
	s.Subscribe(func(Snapshot) {
		// Reading from inside a callback must not deadlock.
		if u := s.Snapshot().User; u != nil {
			seen = u.ID
		}
	})
	s.SetUser(&store.User{ID: "u2"})
	if seen != "u2" {
		t.Fatalf("seen = %q", seen)
	}
}

func TestLanguage(t *testing.T) {
	s := New()
	if s.Snapshot().Language() != "ja" {
		t.Fatal("default language should be ja")
	}
	st := store.DefaultSettings("u")
	st.Language = "en"
	s.SetSettings(&st)
	if s.Snapshot().Language() != "en" {
		t.Fatal("language should follow settings")
	}
}
