package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"crowd-sim/internal/domain"
)

// RunStatusStore publica el estado vivo de las corridas para que el polling
// de estado no golpee la base de datos. La base sigue siendo la fuente de
// verdad; esto es una cache de corta vida.
type RunStatusStore interface {
	Set(runID string, status domain.RunStatus) error
	Get(runID string) (domain.RunStatus, bool, error)
}

const runStatusTTL = 24 * time.Hour

type memoryRunStatusStore struct {
	mu    sync.Mutex
	items map[string]domain.RunStatus
}

func NewMemoryRunStatusStore() RunStatusStore {
	return &memoryRunStatusStore{items: make(map[string]domain.RunStatus)}
}

func (s *memoryRunStatusStore) Set(runID string, status domain.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(runID) == "" {
		return nil
	}
	s.items[runID] = status
	return nil
}

func (s *memoryRunStatusStore) Get(runID string) (domain.RunStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.items[runID]
	return status, ok, nil
}

type redisRunStatusStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRunStatusStore(client *redis.Client) RunStatusStore {
	if client == nil {
		return nil
	}
	return &redisRunStatusStore{
		client: client,
		prefix: "sim:run:",
	}
}

func (s *redisRunStatusStore) Set(runID string, status domain.RunStatus) error {
	if strings.TrimSpace(runID) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+runID, string(status), runStatusTTL).Err()
}

func (s *redisRunStatusStore) Get(runID string) (domain.RunStatus, bool, error) {
	if strings.TrimSpace(runID) == "" {
		return "", false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	val, err := s.client.Get(ctx, s.prefix+runID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return domain.RunStatus(val), true, nil
}
