package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/brojonat/minisolscan/service/metrics"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/prefs"
	"github.com/brojonat/minisolscan/service/session"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "minisolscan_session"

// Sessions maps browser sessions to their Session objects. Live sessions
// are cached with a sliding TTL; their preferences live in store under
// "session/<id>", so an evicted session is restored on its next request.
type Sessions struct {
	cache          *cache.Cache
	store          prefs.Store
	ttl            time.Duration
	defaultNetwork network.Type
	metrics        *metrics.Metrics
	logger         *slog.Logger

	mu sync.Mutex
}

// NewSessions creates a registry. If metrics is nil, no metrics will be recorded.
func NewSessions(store prefs.Store, ttl time.Duration, defaultNetwork network.Type, m *metrics.Metrics, logger *slog.Logger) *Sessions {
	return &Sessions{
		cache:          cache.New(ttl, ttl/2),
		store:          store,
		ttl:            ttl,
		defaultNetwork: defaultNetwork,
		metrics:        m,
		logger:         logger,
	}
}

// FromRequest returns the caller's session, creating one (and setting the
// cookie) when the request has none.
func (s *Sessions) FromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			id = c.Value
		}
	}

	created := false
	if id == "" {
		id = uuid.NewString()
		created = true
	}

	sess, err := s.get(r, id, created)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func (s *Sessions) get(r *http.Request, id string, created bool) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(id); ok {
		// sliding expiry
		s.cache.Set(id, v, s.ttl)
		return v.(*session.Session), nil
	}

	ctx := r.Context()
	store := prefs.Namespace(s.store, "session/"+id)
	if created {
		if err := session.Seed(ctx, store, s.defaultNetwork); err != nil {
			return nil, fmt.Errorf("failed to seed session: %w", err)
		}
	}

	sess, err := session.Open(ctx, store, s.logger.With("session", id[:8]))
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	s.cache.Set(id, sess, s.ttl)

	if created {
		if s.metrics != nil {
			s.metrics.RecordSessionCreated()
		}
		s.logger.DebugContext(ctx, "session created", "session", id[:8])
	}
	return sess, nil
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}
