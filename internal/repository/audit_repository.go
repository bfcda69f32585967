package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/Freeeeeet/massage_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository журнал записей в Postgres, строки только добавляются
type AuditRepository struct {
	*base.Repository
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{Repository: base.NewRepository(pool)}
}

// Append добавляет строки журнала одной пачкой
func (r *AuditRepository) Append(ctx context.Context, rows []model.AuditRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO booking_audit (booking_date, customer_name, phone, service, duration, booking_time, practitioner)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return fmt.Errorf("parse audit date %q: %w", row.Date, err)
		}
		batch.Queue(query, date, row.CustomerName, row.Phone, row.Service, row.Duration, row.Time, row.Practitioner)
	}

	if err := r.ExecBatch(ctx, batch); err != nil {
		return fmt.Errorf("append audit rows: %w", err)
	}

	return nil
}
