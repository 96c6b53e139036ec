package memory

import (
	"context"
	"sync"

	"parkit-backend/internal/repository"
)

type vehicleLocker struct {
	locks *keyedMutex
}

// NewVehicleLocker returns an in-process VehicleLocker for a single server
// instance in front of any storage backend.
func NewVehicleLocker() repository.VehicleLocker {
	return vehicleLocker{locks: newKeyedMutex()}
}

func (l vehicleLocker) Lock(ctx context.Context, vehicleID string) (func(), error) {
	return l.locks.lock(ctx, vehicleID)
}

// keyedMutex hands out one context-aware lock per key. Entries are dropped
// once nobody holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{slots: make(map[string]*slot)}
}

func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.drop(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.drop(key, s)
		})
	}, nil
}

func (k *keyedMutex) drop(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}
