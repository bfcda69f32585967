package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/model"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Store хранилище записей поверх Google Calendar
type Store struct {
	svc        *calendar.Service
	calendarID string
	catalog    *catalog.Catalog
	logger     *zap.Logger
}

func NewStore(ctx context.Context, calendarID string, cat *catalog.Catalog, logger *zap.Logger, opts ...option.ClientOption) (*Store, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Store{
		svc:        svc,
		calendarID: calendarID,
		catalog:    cat,
		logger:     logger,
	}, nil
}

// List все записи, пересекающие [from, to). Повторяющиеся события разворачиваются в экземпляры
func (s *Store) List(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	call := s.svc.Events.List(s.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)

	var bookings []model.Booking
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, ev := range page.Items {
			if ev.Status == "cancelled" || ev.Transparency == "transparent" {
				continue
			}
			decoded, err := decodeEvent(s.catalog, ev)
			if err != nil {
				s.logger.Warn("Skipping calendar event",
					zap.String("event_id", ev.Id),
					zap.String("summary", ev.Summary),
					zap.Error(err))
				continue
			}
			for _, b := range decoded {
				if b.Overlaps(from, to) {
					bookings = append(bookings, b)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}

	return bookings, nil
}

func (s *Store) Insert(ctx context.Context, booking *model.Booking) (string, error) {
	created, err := s.svc.Events.Insert(s.calendarID, encodeEvent(s.catalog, booking)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}

	s.logger.Debug("Calendar event created",
		zap.String("event_id", created.Id),
		zap.String("service", booking.ServiceID),
		zap.Time("start", booking.Start))

	return created.Id, nil
}

// Delete удаляет событие. Уже удалённое событие ошибкой не считается
func (s *Store) Delete(ctx context.Context, eventID string) error {
	err := s.svc.Events.Delete(s.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusGone {
			return nil
		}
		return fmt.Errorf("delete calendar event %s: %w", eventID, err)
	}
	return nil
}
