package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/metrics"
	"github.com/Freeeeeet/massage_booking/internal/model"
)

// ObservedStore пишет латентность вызовов календаря в метрики
type ObservedStore struct {
	next    EventStore
	metrics *metrics.Metrics
}

func NewObservedStore(next EventStore, m *metrics.Metrics) *ObservedStore {
	return &ObservedStore{next: next, metrics: m}
}

func (s *ObservedStore) List(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	started := time.Now()
	bookings, err := s.next.List(ctx, from, to)
	s.metrics.ObserveStore("list", started, err)
	return bookings, err
}

func (s *ObservedStore) Insert(ctx context.Context, booking *model.Booking) (string, error) {
	started := time.Now()
	id, err := s.next.Insert(ctx, booking)
	s.metrics.ObserveStore("insert", started, err)
	return id, err
}

func (s *ObservedStore) Delete(ctx context.Context, eventID string) error {
	started := time.Now()
	err := s.next.Delete(ctx, eventID)
	s.metrics.ObserveStore("delete", started, err)
	return err
}
