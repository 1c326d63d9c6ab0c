/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sweeper

import (
	"sync"
	"time"

	"github.com/carverauto/devicewatch/pkg/models"
)

const defaultSubscriberBuffer = 64

// StatusStore holds the current status of each monitored device.
//
// Writes are gated on an existence check against the registry performed
// while the store lock is held, so a probe finishing after its device was
// removed cannot recreate a status entry. Lock order is store, then registry.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]models.DeviceStatus
	exists   func(id string) bool

	subMu       sync.Mutex
	subscribers map[int]chan models.StatusEvent
	nextSubID   int
	dropped     uint64
}

// NewStatusStore creates an empty store. exists reports whether a device id
// is still registered.
func NewStatusStore(exists func(id string) bool) *StatusStore {
	return &StatusStore{
		statuses:    make(map[string]models.DeviceStatus),
		exists:      exists,
		subscribers: make(map[int]chan models.StatusEvent),
	}
}

// Apply folds a probe result into the status of id. It returns false, and
// changes nothing, when id is no longer registered.
func (s *StatusStore) Apply(id string, result models.ProbeResult) (models.DeviceStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(id) {
		return models.DeviceStatus{}, false
	}

	current, ok := s.statuses[id]
	if !ok {
		current = models.NewUnprobedStatus(result.CheckedAt)
	}

	next := current.Apply(result)
	s.statuses[id] = next

	s.publish(models.StatusEvent{DeviceID: id, Status: next})

	return next, true
}

// Prime sets an unprobed status for id unless one already exists.
func (s *StatusStore) Prime(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.statuses[id]; ok || !s.exists(id) {
		return
	}

	s.statuses[id] = models.NewUnprobedStatus(at)
}

func (s *StatusStore) Get(id string) (models.DeviceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[id]

	return st, ok
}

func (s *StatusStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.statuses[id]; !ok {
		return
	}

	delete(s.statuses, id)

	s.publish(models.StatusEvent{DeviceID: id, Removed: true})
}

func (s *StatusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.statuses)
}

// Subscribe registers a listener for status changes. Events are dropped for
// a subscriber whose buffer is full. The returned func unsubscribes.
func (s *StatusStore) Subscribe() (<-chan models.StatusEvent, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++

	ch := make(chan models.StatusEvent, defaultSubscriberBuffer)
	s.subscribers[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()

			delete(s.subscribers, id)
			close(ch)
		})
	}
}

// Dropped returns how many events were discarded for slow subscribers.
func (s *StatusStore) Dropped() uint64 {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	return s.dropped
}

// publish must be called with s.mu held so events for a device are
// delivered in the order they were applied.
func (s *StatusStore) publish(ev models.StatusEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			s.dropped++
		}
	}
}
