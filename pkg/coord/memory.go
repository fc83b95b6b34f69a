// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package coord

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Several gateways in one process can
// share a single MemoryStore to behave like nodes sharing one Redis.
type MemoryStore struct {
	mu   sync.RWMutex
	kv   map[string]string
	sets map[string]map[string]struct{}
	fail error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kv:   make(map[string]string),
		sets: make(map[string]map[string]struct{}),
	}
}

// FailWith makes every subsequent call return err, simulating an unreachable
// backend. A nil err restores normal operation.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.kv[key] = value
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}
	v, ok := s.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	delete(s.kv, key)
	return nil
}

func (s *MemoryStore) SAdd(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (s *MemoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(ctx)
}

func (s *MemoryStore) Close() error {
	return nil
}

// check must be called with mu held.
func (s *MemoryStore) check(ctx context.Context) error {
	if s.fail != nil {
		return s.fail
	}
	return ctx.Err()
}
