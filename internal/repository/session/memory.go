package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/entity"
)

type memoryEntry struct {
	session   *entity.Session
	expiresAt time.Time
}

type memoryRepository struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewMemoryRepository keeps sessions in process memory. Every Get or Save
// extends the session lifetime by ttl. Expired sessions are dropped on Save.
func NewMemoryRepository(ttl time.Duration, log *slog.Logger) *memoryRepository {
	return &memoryRepository{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
		log:      log.With(slog.String("item", "MemorySessionRepository")),
	}
}

func (r *memoryRepository) Get(_ context.Context, id string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(id)
	if !ok {
		return nil, common.ErrSessionNotFoundError
	}

	entry.expiresAt = r.now().Add(r.ttl)
	r.sessions[id] = entry

	return clone(entry.session), nil
}

func (r *memoryRepository) Save(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune()

	r.sessions[s.ID] = memoryEntry{
		session:   clone(s),
		expiresAt: r.now().Add(r.ttl),
	}

	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)

	return nil
}

func (r *memoryRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.lookup(id)

	return ok, nil
}

// lookup drops the entry when it has expired. Caller holds mu.
func (r *memoryRepository) lookup(id string) (memoryEntry, bool) {
	entry, ok := r.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}

	if !r.now().Before(entry.expiresAt) {
		r.log.Debug("Session expired", slog.String("id", id))
		delete(r.sessions, id)

		return memoryEntry{}, false
	}

	return entry, true
}

// prune drops every expired entry. Caller holds mu.
func (r *memoryRepository) prune() {
	now := r.now()

	for id, entry := range r.sessions {
		if !now.Before(entry.expiresAt) {
			r.log.Debug("Session expired", slog.String("id", id))
			delete(r.sessions, id)
		}
	}
}

func clone(s *entity.Session) *entity.Session {
	c := *s
	c.Files = append([]string(nil), s.Files...)

	if s.Notice != nil {
		n := *s.Notice
		c.Notice = &n
	}

	return &c
}
