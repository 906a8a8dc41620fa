// Package session holds the signed-in user shared by every view.
package session

import (
	"sync"

	"github.com/sadopc/mindjournal/internal/store"
)

// Snapshot is an immutable copy of the state handed to subscribers.
type Snapshot struct {
	User     *store.User
	Token    string
	Loading  bool
	Settings *store.UserSettings
}

// SignedIn reports whether a user is present.
func (s Snapshot) SignedIn() bool {
	return s.User != nil
}

// Language returns the user's display language, ja when unknown.
func (s Snapshot) Language() string {
	if s.Settings != nil && s.Settings.Language != "" {
		return s.Settings.Language
	}
	return store.LangJA
}

// State is passed by reference to the views that need the current user.
// Subscribers are called synchronously, in subscription order, after each
// change and outside the lock.
type State struct {
	mu     sync.Mutex
	snap   Snapshot
	nextID int
	subs   map[int]func(Snapshot)
	order  []int
}

func New() *State {
	return &State{subs: make(map[int]func(Snapshot))}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn and returns a func that removes it.
func (s *State) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *State) SetLoading(loading bool) {
	s.update(func(snap *Snapshot) { snap.Loading = loading })
}

// SignIn records the user and token and clears the loading flag.
func (s *State) SignIn(u *store.User, token string) {
	s.update(func(snap *Snapshot) {
		snap.User = u
		snap.Token = token
		snap.Loading = false
	})
}

func (s *State) SetUser(u *store.User) {
	s.update(func(snap *Snapshot) { snap.User = u })
}

func (s *State) SetSettings(st *store.UserSettings) {
	s.update(func(snap *Snapshot) { snap.Settings = st })
}

// SignOut clears everything.
func (s *State) SignOut() {
	s.update(func(snap *Snapshot) { *snap = Snapshot{} })
}

func (s *State) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	snap := s.snap
	subs := make([]func(Snapshot), 0, len(s.order))
	for _, id := range s.order {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
