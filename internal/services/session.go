package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Ключі сесії, під якими зберігається незавершена авторизація
const (
	SessionKeyCSRFToken    = "oauth_csrf_token"
	SessionKeyPKCEVerifier = "oauth_pkce_verifier"
)

// SessionStore серверне сховище сесій. Всі операції обмежені одним session ID.
type SessionStore interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	// Take атомарно читає і видаляє значення
	Take(ctx context.Context, sessionID, key string) (string, bool, error)
	Delete(ctx context.Context, sessionID string, keys ...string) error
	Ping(ctx context.Context) error
}

// Session key-value доступ до сесії поточного запиту
type Session struct {
	id    string
	store SessionStore
}

// NewSession прив'язує сховище до конкретного session ID
func NewSession(id string, store SessionStore) *Session {
	return &Session{id: id, store: store}
}

// ID повертає ідентифікатор сесії
func (s *Session) ID() string {
	return s.id
}

func (s *Session) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.id, key)
}

func (s *Session) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.id, key, value)
}

func (s *Session) Take(ctx context.Context, key string) (string, bool, error) {
	return s.store.Take(ctx, s.id, key)
}

func (s *Session) Delete(ctx context.Context, keys ...string) error {
	return s.store.Delete(ctx, s.id, keys...)
}

// memorySessionStore реалізація SessionStore (in-memory, один процес)
type memorySessionStore struct {
	cache *cache.Cache
	mutex sync.Mutex
}

// NewMemorySessionStore створює in-memory сховище сесій з TTL
func NewMemorySessionStore(ttl time.Duration) SessionStore {
	return &memorySessionStore{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (m *memorySessionStore) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	value, ok := m.cache.Get(memoryKey(sessionID, key))
	if !ok {
		return "", false, nil
	}
	return value.(string), true, nil
}

func (m *memorySessionStore) Set(_ context.Context, sessionID, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.cache.Set(memoryKey(sessionID, key), value, cache.DefaultExpiration)
	return nil
}

func (m *memorySessionStore) Take(_ context.Context, sessionID, key string) (string, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	k := memoryKey(sessionID, key)
	value, ok := m.cache.Get(k)
	if !ok {
		return "", false, nil
	}
	m.cache.Delete(k)

	return value.(string), true, nil
}

func (m *memorySessionStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, key := range keys {
		m.cache.Delete(memoryKey(sessionID, key))
	}

	logrus.WithFields(logrus.Fields{
		"session_id": mask(sessionID),
		"keys":       keys,
	}).Debug("Session keys deleted")

	return nil
}

func (m *memorySessionStore) Ping(context.Context) error {
	return nil
}

func memoryKey(sessionID, key string) string {
	return sessionID + ":" + key
}

// NewSessionID генерує унікальний ID сесії
func NewSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(bytes), nil
}
