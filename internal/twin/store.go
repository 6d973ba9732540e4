package twin

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"pkt.systems/bookbdd/internal/fixture"
)

// Store holds the twin's bookings and issued tokens.
type Store struct {
	mu       sync.RWMutex
	nextID   int
	bookings map[int]fixture.Booking
	tokens   map[string]struct{}
	creds    fixture.Credentials
}

// NewStore creates an empty store accepting creds on /auth.
func NewStore(creds fixture.Credentials) *Store {
	return &Store{
		nextID:   1,
		bookings: map[int]fixture.Booking{},
		tokens:   map[string]struct{}{},
		creds:    creds,
	}
}

// Seed adds bookings and returns their identifiers.
func (s *Store) Seed(bookings ...fixture.Booking) []int {
	ids := make([]int, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, s.Create(b))
	}
	return ids
}

// Create stores b under a new identifier.
func (s *Store) Create(b fixture.Booking) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.bookings[id] = b
	return id
}

// Get returns the booking stored under id.
func (s *Store) Get(id int) (fixture.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	return b, ok
}

// Update applies fn to the booking under id and stores the result.
func (s *Store) Update(id int, fn func(fixture.Booking) fixture.Booking) (fixture.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return fixture.Booking{}, false
	}
	b = fn(b)
	s.bookings[id] = b
	return b, true
}

// Delete removes the booking under id.
func (s *Store) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return false
	}
	delete(s.bookings, id)
	return true
}

// List returns identifiers in ascending order, filtered by name when the
// filters are non-empty (case-insensitive).
func (s *Store) List(firstname, lastname string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.bookings))
	for id, b := range s.bookings {
		if firstname != "" && !strings.EqualFold(b.Firstname, firstname) {
			continue
		}
		if lastname != "" && !strings.EqualFold(b.Lastname, lastname) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CheckCredentials reports whether c matches the configured credentials.
func (s *Store) CheckCredentials(c fixture.Credentials) bool {
	return c.Username == s.creds.Username && c.Password == s.creds.Password
}

// IssueToken mints and remembers a new token.
func (s *Store) IssueToken() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:15]
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	return token
}

// ValidToken reports whether token was issued by this store.
func (s *Store) ValidToken(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

// Reset drops every booking and token.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = 1
	s.bookings = map[int]fixture.Booking{}
	s.tokens = map[string]struct{}{}
}
