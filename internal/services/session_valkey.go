package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// valkeySessionStore реалізація SessionStore поверх Valkey.
// Кожне поле сесії - окремий ключ prefix:session:{<id>}:<field> з TTL,
// hash tag тримає всі поля сесії в одному слоті кластера.
type valkeySessionStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeySessionStore створює сховище сесій, спільне для кількох інстансів сервісу
func NewValkeySessionStore(client valkey.Client, prefix string, ttl time.Duration) SessionStore {
	return &valkeySessionStore{
		client: client,
		prefix: strings.TrimSuffix(prefix, ":"),
		ttl:    ttl,
	}
}

func (s *valkeySessionStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	value, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(sessionID, key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("executing get command: %w", err)
	}

	return value, true, nil
}

func (s *valkeySessionStore) Set(ctx context.Context, sessionID, key, value string) error {
	cmd := s.client.B().Set().Key(s.key(sessionID, key)).Value(value).ExSeconds(int64(s.ttl / time.Second)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}

	return nil
}

func (s *valkeySessionStore) Take(ctx context.Context, sessionID, key string) (string, bool, error) {
	value, err := s.client.Do(ctx, s.client.B().Getdel().Key(s.key(sessionID, key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("executing getdel command: %w", err)
	}

	return value, true, nil
}

func (s *valkeySessionStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		fullKeys = append(fullKeys, s.key(sessionID, key))
	}

	if err := s.client.Do(ctx, s.client.B().Del().Key(fullKeys...).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}

func (s *valkeySessionStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

func (s *valkeySessionStore) key(sessionID, field string) string {
	return fmt.Sprintf("%s:session:{%s}:%s", s.prefix, sessionID, field)
}
