package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/Freeeeeet/massage_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// EventRepository календарь в Postgres - альтернатива Google Calendar
type EventRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewEventRepository(pool *pgxpool.Pool, logger *zap.Logger) *EventRepository {
	return &EventRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// List получает все события, строго пересекающие [from, to)
func (r *EventRepository) List(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	query := `
		SELECT id, service_id, service_label, kinds, start_time, end_time,
		       practitioner, customer_name, customer_phone, party_id, guest_index, created_at
		FROM calendar_events
		WHERE start_time < $2 AND end_time > $1
		ORDER BY start_time
	`

	bookings, err := base.Select(ctx, r.Repository, query, scanBooking, from, to)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return bookings, nil
}

func scanBooking(row pgx.CollectableRow) (model.Booking, error) {
	var (
		b     model.Booking
		kinds []string
	)
	err := row.Scan(
		&b.ID,
		&b.ServiceID,
		&b.ServiceLabel,
		&kinds,
		&b.Start,
		&b.End,
		&b.Practitioner,
		&b.Customer.Name,
		&b.Customer.Phone,
		&b.PartyID,
		&b.GuestIndex,
		&b.CreatedAt,
	)
	if err != nil {
		return b, fmt.Errorf("scan calendar event: %w", err)
	}
	for _, k := range kinds {
		b.Kinds = append(b.Kinds, model.ResourceKind(k))
	}
	return b, nil
}

// Insert создаёт событие и возвращает его идентификатор
func (r *EventRepository) Insert(ctx context.Context, booking *model.Booking) (string, error) {
	query := `
		INSERT INTO calendar_events (id, service_id, service_label, kinds, start_time, end_time,
		                             practitioner, customer_name, customer_phone, party_id, guest_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	kinds := make([]string, 0, len(booking.Kinds))
	for _, k := range booking.Kinds {
		kinds = append(kinds, string(k))
	}

	id := uuid.NewString()
	err := r.QueryRow(
		ctx, query,
		id,
		booking.ServiceID,
		booking.ServiceLabel,
		kinds,
		booking.Start,
		booking.End,
		booking.Practitioner,
		booking.Customer.Name,
		booking.Customer.Phone,
		booking.PartyID,
		booking.GuestIndex,
	).Scan(&booking.CreatedAt)

	if err != nil {
		r.logger.Error("Failed to insert calendar event",
			zap.String("service_id", booking.ServiceID),
			zap.Time("start", booking.Start),
			zap.Error(err))
		return "", fmt.Errorf("insert calendar event: %w", err)
	}

	return id, nil
}

// Delete удаляет событие (используется только для отката частичной записи)
func (r *EventRepository) Delete(ctx context.Context, eventID string) error {
	if err := r.ExecOne(ctx, `DELETE FROM calendar_events WHERE id = $1`, eventID); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", eventID, err)
	}
	return nil
}
