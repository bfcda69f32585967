package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
)

// EventStore внешний календарь - источник истины по записям.
// List возвращает все события, пересекающие [from, to)
type EventStore interface {
	List(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	Insert(ctx context.Context, booking *model.Booking) (string, error)
	Delete(ctx context.Context, eventID string) error
}

// AuditWriter журнал записей только на добавление, одна строка на запись
type AuditWriter interface {
	Append(ctx context.Context, rows []model.AuditRow) error
}
