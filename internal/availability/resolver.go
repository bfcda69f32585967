package availability

import (
	"context"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/metrics"
	"github.com/Freeeeeet/massage_booking/internal/model"
	"go.uber.org/zap"
)

// Lister источник существующих записей (внешний календарь)
type Lister interface {
	List(ctx context.Context, from, to time.Time) ([]model.Booking, error)
}

// Result ответ проверки доступности
type Result struct {
	Available bool            `json:"available"`
	Code      model.ErrorCode `json:"code,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Err       *model.Error    `json:"-"`
}

func available() Result {
	return Result{Available: true}
}

func rejected(err *model.Error) Result {
	return Result{Code: err.Code, Reason: err.Message, Err: err}
}

// Segment отрезок времени одного компонента услуги
type Segment struct {
	Component model.Component
	Start     time.Time
	End       time.Time
}

// Timeline раскладывает услугу на последовательные отрезки начиная со start.
// Конец каждого отрезка совпадает с началом следующего
func Timeline(svc *model.Service, start time.Time) []Segment {
	segments := make([]Segment, 0, len(svc.Components))
	cursor := start
	for _, comp := range svc.Components {
		end := cursor.Add(time.Duration(comp.Minutes) * time.Minute)
		segments = append(segments, Segment{Component: comp, Start: cursor, End: end})
		cursor = end
	}
	return segments
}

type guestPlan struct {
	guest   model.Guest
	service *model.Service
}

// Resolver решает, можно ли принять группу гостей в заданное время
type Resolver struct {
	catalog *catalog.Catalog
	store   Lister
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewResolver(cat *catalog.Catalog, store Lister, m *metrics.Metrics, logger *zap.Logger) *Resolver {
	return &Resolver{
		catalog: cat,
		store:   store,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

// WithClock подменяет источник текущего времени
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

func (r *Resolver) Catalog() *catalog.Catalog {
	return r.catalog
}

func (r *Resolver) Now() time.Time {
	return r.now()
}

// CheckAvailability проверяет группу гостей с общим началом start.
// Порядок: размер группы, услуги, прошлое время, часы работы, вместимость, мастера.
// Ошибка возвращается только при сбое календаря, отказы по доступности - в Result
func (r *Resolver) CheckAvailability(ctx context.Context, guests []model.Guest, start time.Time) (Result, error) {
	plans, maxDuration, verr := r.prepare(guests)
	if verr != nil {
		r.record(verr)
		return rejected(verr), nil
	}

	if verr := r.precheck(start, maxDuration); verr != nil {
		r.record(verr)
		return rejected(verr), nil
	}

	end := start.Add(time.Duration(maxDuration) * time.Minute)
	bookings, err := r.store.List(ctx, start, end)
	if err != nil {
		r.logger.Error("Failed to list calendar events",
			zap.Time("from", start),
			zap.Time("to", end),
			zap.Error(err))
		uerr := model.NewUpstreamUnavailable("list calendar events", err)
		r.record(uerr)
		return Result{}, uerr
	}

	if verr := r.evaluate(plans, start, NewLedger(bookings)); verr != nil {
		r.logger.Debug("Slot rejected",
			zap.Time("start", start),
			zap.String("code", string(verr.Code)),
			zap.String("reason", verr.Message))
		r.record(verr)
		return rejected(verr), nil
	}

	r.metrics.CheckResult("available")
	return available(), nil
}

func (r *Resolver) record(err *model.Error) {
	r.metrics.CheckResult(string(err.Code))
}

// prepare проверяет размер группы и услуги, возвращает максимальную длительность
func (r *Resolver) prepare(guests []model.Guest) ([]guestPlan, int, *model.Error) {
	if len(guests) < 1 || len(guests) > r.catalog.MaxPartySize() {
		return nil, 0, model.NewInvalidPartySize(len(guests), r.catalog.MaxPartySize())
	}

	plans := make([]guestPlan, 0, len(guests))
	maxDuration := 0
	for _, g := range guests {
		svc, err := r.catalog.Lookup(g.ServiceID)
		if err != nil {
			return nil, 0, model.NewInvalidService(g.ServiceID)
		}
		if svc.Duration > maxDuration {
			maxDuration = svc.Duration
		}
		plans = append(plans, guestPlan{guest: g, service: svc})
	}

	return plans, maxDuration, nil
}

// precheck дешёвые проверки без обращения к календарю
func (r *Resolver) precheck(start time.Time, maxDuration int) *model.Error {
	if start.Before(r.now()) {
		return model.NewPastTime()
	}

	if res := r.catalog.IsWithinBusinessHours(start, maxDuration); !res.Valid {
		return model.NewOutOfHours(res.Reason)
	}

	return nil
}

// evaluate проверяет вместимость для всей группы, затем мастеров по каждому гостю
func (r *Resolver) evaluate(plans []guestPlan, start time.Time, ledger *Ledger) *model.Error {
	var demands []Demand
	for _, p := range plans {
		for _, seg := range Timeline(p.service, start) {
			for _, kind := range seg.Component.Kinds {
				demands = append(demands, Demand{Kind: kind, Start: seg.Start, End: seg.End})
			}
		}
	}

	if kind, ok := ledger.Fits(demands, r.catalog.Capacity); !ok {
		return model.NewCapacityExceeded(kind, r.catalog.Capacity(kind))
	}

	// мастер проверяется на длительность услуги своего гостя, а не группы
	claimed := make(map[string][]span)
	for _, p := range plans {
		name := p.guest.Practitioner
		if name == "" {
			continue
		}
		end := start.Add(p.service.Length())
		if !ledger.IsPractitionerFree(name, start, end) {
			return model.NewPractitionerBusy(name)
		}
		for _, s := range claimed[name] {
			if s.start.Before(end) && s.end.After(start) {
				return model.NewPractitionerBusy(name)
			}
		}
		claimed[name] = append(claimed[name], span{start: start, end: end})
	}

	return nil
}
