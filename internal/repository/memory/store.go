package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/google/uuid"
)

// Store календарь в памяти: для тестов и для запуска без внешних зависимостей
type Store struct {
	mu     sync.RWMutex
	events map[string]model.Booking

	// хуки для тестов: ошибка на n-й вставке, ошибки удаления и чтения
	FailInsertAt int
	FailDelete   error
	FailList     error
	inserts      int
}

func NewStore(seed ...model.Booking) *Store {
	s := &Store{events: make(map[string]model.Booking)}
	for _, b := range seed {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.events[b.ID] = b
	}
	return s
}

func (s *Store) List(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	if s.FailList != nil {
		return nil, s.FailList
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Booking
	for _, b := range s.events {
		if b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s *Store) Insert(ctx context.Context, booking *model.Booking) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inserts++
	if s.FailInsertAt > 0 && s.inserts == s.FailInsertAt {
		return "", fmt.Errorf("insert event: simulated failure")
	}

	id := uuid.NewString()
	stored := *booking
	stored.ID = id
	stored.CreatedAt = time.Now()
	s.events[id] = stored
	return id, nil
}

func (s *Store) Delete(ctx context.Context, eventID string) error {
	if s.FailDelete != nil {
		return s.FailDelete
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return fmt.Errorf("event %s not found", eventID)
	}
	delete(s.events, eventID)
	return nil
}

// All снимок всех событий, отсортированный по началу
func (s *Store) All() []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Booking, 0, len(s.events))
	for _, b := range s.events {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
