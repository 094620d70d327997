package session

import (
	"context"
	"errors"
	"time"

	"contribution-scout/internal/domain"
	"contribution-scout/internal/logging"
	"contribution-scout/internal/port"

	"github.com/google/uuid"
)

var (
	ErrMissingClientID = errors.New("missing client id")
	ErrInvalidClient   = errors.New("invalid or expired client id")
)

// Manager issues and verifies client sessions. The cache is consulted first;
// the store is the fallback and survives restarts.
type Manager struct {
	cache   *Cache
	store   port.SessionStore
	log     *logging.Logger
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewManager(cache *Cache, store port.SessionStore, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		cache:   cache,
		store:   store,
		log:     log,
		ttl:     domain.SessionTTL,
		nowFunc: time.Now,
	}
}

// Issue creates a session valid for one hour. A store failure is logged; the
// session still works from the cache.
func (m *Manager) Issue(ctx context.Context) domain.ClientSession {
	s := domain.ClientSession{
		ClientID:  uuid.NewString(),
		ExpiresAt: m.nowFunc().Add(m.ttl).UnixMilli(),
	}
	m.cache.Put(s.ClientID, s.ExpiresAt)

	if m.store != nil {
		if err := m.store.SaveSession(ctx, &s); err != nil {
			m.log.Error("failed to persist client session", "clientId", s.ClientID, "error", err)
		}
	}
	return s
}

// Verify reports whether clientID names a live session.
func (m *Manager) Verify(ctx context.Context, clientID string) error {
	if clientID == "" {
		return ErrMissingClientID
	}

	expiresAt, ok := m.cache.Get(clientID)
	if !ok && m.store != nil {
		s, err := m.store.FindSession(ctx, clientID)
		if err != nil {
			m.log.Warn("client session lookup failed", "clientId", clientID, "error", err)
		}
		if s != nil {
			expiresAt, ok = s.ExpiresAt, true
			m.cache.Put(clientID, expiresAt)
		}
	}

	if !ok || expiresAt < m.nowFunc().UnixMilli() {
		return ErrInvalidClient
	}
	return nil
}
