package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/availability"
	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/lock"
	"github.com/Freeeeeet/massage_booking/internal/metrics"
	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/Freeeeeet/massage_booking/internal/render"
	"github.com/Freeeeeet/massage_booking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Confirmation результат успешной записи
type Confirmation struct {
	PartyID  string          `json:"party_id"`
	Bookings []model.Booking `json:"bookings"`
}

// EventIDs идентификаторы созданных событий календаря
func (c *Confirmation) EventIDs() []string {
	ids := make([]string, 0, len(c.Bookings))
	for _, b := range c.Bookings {
		ids = append(ids, b.ID)
	}
	return ids
}

type BookingService struct {
	catalog     *catalog.Catalog
	resolver    *availability.Resolver
	search      *availability.Search
	store       repository.EventStore
	audit       repository.AuditWriter
	locker      lock.Locker
	lockTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewBookingService(
	cat *catalog.Catalog,
	resolver *availability.Resolver,
	search *availability.Search,
	store repository.EventStore,
	audit repository.AuditWriter,
	locker lock.Locker,
	lockTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		catalog:     cat,
		resolver:    resolver,
		search:      search,
		store:       store,
		audit:       audit,
		locker:      locker,
		lockTimeout: lockTimeout,
		metrics:     m,
		logger:      logger,
	}
}

func (s *BookingService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Now текущее время часов резолвера
func (s *BookingService) Now() time.Time {
	return s.resolver.Now()
}

// CheckAvailability проверка без записи
func (s *BookingService) CheckAvailability(ctx context.Context, guests []model.Guest, start time.Time) (availability.Result, error) {
	return s.resolver.CheckAvailability(ctx, guests, start)
}

// NextAvailable ближайшее свободное время в день day (нулевой day - ближайшие сутки)
func (s *BookingService) NextAvailable(ctx context.Context, guests []model.Guest, day time.Time) (time.Time, error) {
	return s.search.FindNextAvailable(ctx, guests, day)
}

// DaySlots все свободные времена начала за день
func (s *BookingService) DaySlots(ctx context.Context, guests []model.Guest, day time.Time) ([]time.Time, error) {
	return s.search.ListAvailable(ctx, guests, day)
}

// DayBookings все записи календаря за день в зоне магазина
func (s *BookingService) DayBookings(ctx context.Context, day time.Time) ([]model.Booking, error) {
	from := s.catalog.StartOfDay(day)
	bookings, err := s.store.List(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("Failed to list day bookings", zap.Time("day", from), zap.Error(err))
		return nil, model.NewUpstreamUnavailable("list calendar events", err)
	}
	return bookings, nil
}

// DayChart PNG с занятостью ресурсов за день
func (s *BookingService) DayChart(ctx context.Context, day time.Time) ([]byte, error) {
	bookings, err := s.DayBookings(ctx, day)
	if err != nil {
		return nil, err
	}
	return render.DayChart(s.catalog, day, bookings, s.Now())
}

// Book записывает группу в два шага: под блокировкой заново проверяет доступность,
// затем создаёт события по одному, откатывая уже созданные при сбое
func (s *BookingService) Book(ctx context.Context, party model.Party) (*Confirmation, error) {
	conf, err := s.book(ctx, party)
	if err != nil {
		if derr, ok := model.AsError(err); ok {
			s.metrics.Failure(string(derr.Code))
		} else {
			s.metrics.Failure("internal")
		}
		return nil, err
	}
	return conf, nil
}

func (s *BookingService) book(ctx context.Context, party model.Party) (*Confirmation, error) {
	if n := len(party.Guests); n < 1 || n > s.catalog.MaxPartySize() {
		return nil, model.NewInvalidPartySize(n, s.catalog.MaxPartySize())
	}

	keys, err := lockKeys(s.catalog, party.Guests)
	if err != nil {
		return nil, err
	}

	// Шаг 1: резерв - блокировка и свежая проверка
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	waitStarted := time.Now()
	release, err := s.locker.Acquire(lockCtx, keys)
	s.metrics.ObserveLockWait(waitStarted)
	if err != nil {
		s.logger.Error("Failed to acquire booking lock",
			zap.Strings("keys", keys),
			zap.Error(err))
		return nil, model.NewUpstreamUnavailable("acquire booking lock", err)
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.Warn("Failed to release booking lock", zap.Strings("keys", keys), zap.Error(rerr))
		}
	}()

	res, err := s.resolver.CheckAvailability(ctx, party.Guests, party.Start)
	if err != nil {
		return nil, err
	}
	if !res.Available {
		s.logger.Info("Booking rejected",
			zap.Time("start", party.Start),
			zap.String("code", string(res.Code)),
			zap.String("reason", res.Reason))
		return nil, res.Err
	}

	partyID := uuid.NewString()
	bookings, err := Materialize(s.catalog, party, partyID)
	if err != nil {
		return nil, err
	}

	// Шаг 2: запись с компенсацией
	committed, err := s.commit(ctx, bookings)
	if err != nil {
		return nil, err
	}
	s.metrics.Committed(len(committed))

	s.logger.Info("✅ Booking committed",
		zap.String("party_id", partyID),
		zap.String("customer", party.Customer.Name),
		zap.Time("start", party.Start),
		zap.Int("guests", len(party.Guests)),
		zap.Int("events", len(committed)))

	s.appendAudit(ctx, committed)

	return &Confirmation{PartyID: partyID, Bookings: committed}, nil
}

func (s *BookingService) commit(ctx context.Context, bookings []model.Booking) ([]model.Booking, error) {
	inserted := make([]model.Booking, 0, len(bookings))
	for i := range bookings {
		id, err := s.store.Insert(ctx, &bookings[i])
		if err != nil {
			s.logger.Error("Failed to insert calendar event",
				zap.String("party_id", bookings[i].PartyID),
				zap.Int("index", i),
				zap.Int("already_inserted", len(inserted)),
				zap.Error(err))
			return nil, s.compensate(ctx, inserted, err)
		}
		bookings[i].ID = id
		inserted = append(inserted, bookings[i])
	}
	return inserted, nil
}

// compensate удаляет уже созданные события в обратном порядке.
// Если удалить не удалось, возвращает PartialCommitFailure со списком осиротевших событий
func (s *BookingService) compensate(ctx context.Context, inserted []model.Booking, cause error) error {
	if len(inserted) == 0 {
		return model.NewUpstreamUnavailable("insert calendar event", cause)
	}

	dctx := context.WithoutCancel(ctx)
	var orphans []string
	for i := len(inserted) - 1; i >= 0; i-- {
		id := inserted[i].ID
		if err := s.store.Delete(dctx, id); err != nil {
			s.logger.Error("Compensation failed, event left in calendar",
				zap.String("event_id", id),
				zap.Error(err))
			orphans = append(orphans, id)
		}
	}

	if len(orphans) > 0 {
		s.metrics.Compensation("failed")
		return model.NewPartialCommitFailure(orphans, cause)
	}

	s.metrics.Compensation("rolled_back")
	s.logger.Warn("Partially created booking rolled back", zap.Int("deleted", len(inserted)))
	return model.NewUpstreamUnavailable("insert calendar event", cause)
}

func (s *BookingService) appendAudit(ctx context.Context, bookings []model.Booking) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, auditRows(s.catalog, bookings)); err != nil {
		s.logger.Warn("Failed to append audit rows",
			zap.Int("rows", len(bookings)),
			zap.Error(err))
	}
}
