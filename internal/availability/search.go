package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"go.uber.org/zap"
)

const DefaultHorizon = 24 * time.Hour

// Search линейный перебор кандидатов с фиксированным шагом
type Search struct {
	resolver *Resolver
	step     time.Duration
	horizon  time.Duration
}

func NewSearch(resolver *Resolver, step, horizon time.Duration) (*Search, error) {
	if step <= 0 || time.Hour%step != 0 {
		return nil, fmt.Errorf("search step %s must divide an hour", step)
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Search{resolver: resolver, step: step, horizon: horizon}, nil
}

// FindNextAvailable первое время начала в день day (или в горизонте от текущего момента,
// если day нулевой), когда группу можно принять. Если ничего нет - model.ErrNoSlot
func (s *Search) FindNextAvailable(ctx context.Context, guests []model.Guest, day time.Time) (time.Time, error) {
	found, err := s.scan(ctx, guests, day, true)
	if err != nil {
		return time.Time{}, err
	}
	if len(found) == 0 {
		return time.Time{}, model.NewNoSlot()
	}
	return found[0], nil
}

// ListAvailable все подходящие времена начала за день
func (s *Search) ListAvailable(ctx context.Context, guests []model.Guest, day time.Time) ([]time.Time, error) {
	return s.scan(ctx, guests, day, false)
}

// window границы перебора: [max(начало дня, now по сетке), конец дня или now+horizon)
func (s *Search) window(day, now time.Time) (time.Time, time.Time) {
	cat := s.resolver.Catalog()

	// сетка отсчитывается от местной полуночи, а не от UTC
	base := cat.StartOfDay(now)
	first := base.Add((now.Sub(base) + s.step - 1) / s.step * s.step)

	if day.IsZero() {
		return first, now.Add(s.horizon)
	}

	from := cat.StartOfDay(day)
	to := from.AddDate(0, 0, 1)
	if first.After(from) {
		from = first
	}
	return from, to
}

func (s *Search) scan(ctx context.Context, guests []model.Guest, day time.Time, firstOnly bool) ([]time.Time, error) {
	started := time.Now()
	defer s.resolver.metrics.ObserveSearch(started)

	plans, maxDuration, verr := s.resolver.prepare(guests)
	if verr != nil {
		return nil, verr
	}

	from, to := s.window(day, s.resolver.now())
	if !from.Before(to) {
		return nil, nil
	}

	// календарь читается один раз на весь горизонт, победитель перепроверяется при записи
	var ledger *Ledger
	var found []time.Time
	probes := 0
	for t := from; t.Before(to); t = t.Add(s.step) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if verr := s.resolver.precheck(t, maxDuration); verr != nil {
			continue
		}

		if ledger == nil {
			listTo := to.Add(time.Duration(maxDuration) * time.Minute)
			bookings, err := s.resolver.store.List(ctx, t, listTo)
			if err != nil {
				s.resolver.logger.Error("Slot search aborted: calendar unavailable",
					zap.Time("from", t),
					zap.Time("to", listTo),
					zap.Error(err))
				return nil, model.NewUpstreamUnavailable("list calendar events", err)
			}
			ledger = NewLedger(bookings)
		}

		probes++
		s.resolver.metrics.Probe()
		if verr := s.resolver.evaluate(plans, t, ledger); verr != nil {
			continue
		}

		found = append(found, t)
		if firstOnly {
			break
		}
	}

	s.resolver.logger.Debug("Slot search finished",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("probes", probes),
		zap.Int("found", len(found)))

	return found, nil
}
