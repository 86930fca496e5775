package feature

import (
	"context"
	"sync"
)

// Store 运行时开关的持久化
type Store interface {
	// Load 读取运行时开关，从未保存过时返回零值
	Load(ctx context.Context) (Features, error)

	// Save 覆盖保存运行时开关
	Save(ctx context.Context, f Features) error
}

// memoryStore 进程内存储，重启后丢失
type memoryStore struct {
	mu       sync.RWMutex
	features Features
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Load(_ context.Context) (Features, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.features, nil
}

func (s *memoryStore) Save(_ context.Context, f Features) error {
	s.mu.Lock()
	s.features = f
	s.mu.Unlock()
	return nil
}
