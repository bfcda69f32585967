package availability

import (
	"sort"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
)

// Demand интервал, который новый запрос хочет занять на ресурсе Kind
type Demand struct {
	Kind  model.ResourceKind
	Start time.Time
	End   time.Time
}

// Ledger снимок уже существующих записей. Пересечение всегда строгое:
// запись, закончившаяся ровно в момент начала окна, окно не занимает
type Ledger struct {
	bookings []model.Booking
}

func NewLedger(bookings []model.Booking) *Ledger {
	return &Ledger{bookings: bookings}
}

// CommittedUnits пиковое число записей типа kind, идущих одновременно внутри [start, end)
func (l *Ledger) CommittedUnits(kind model.ResourceKind, start, end time.Time) int {
	var spans []span
	for i := range l.bookings {
		b := &l.bookings[i]
		if b.Uses(kind) && b.Overlaps(start, end) {
			spans = append(spans, span{start: b.Start, end: b.End})
		}
	}
	return peak(spans, start, end)
}

// IsPractitionerFree true, если у мастера нет записей, пересекающих [start, end).
// Пустой мастер - запись без мастера, проверка всегда проходит
func (l *Ledger) IsPractitionerFree(practitioner string, start, end time.Time) bool {
	if practitioner == "" {
		return true
	}
	for i := range l.bookings {
		b := &l.bookings[i]
		if b.Practitioner == practitioner && b.Overlaps(start, end) {
			return false
		}
	}
	return true
}

// Fits проверяет, что после добавления всех demands ни в один момент ни один тип ресурса
// не превысит вместимость. Новые интервалы учитываются и друг против друга.
// Возвращает первый переполненный тип (в порядке сортировки), если такой есть
func (l *Ledger) Fits(demands []Demand, capacity func(model.ResourceKind) int) (model.ResourceKind, bool) {
	byKind := make(map[model.ResourceKind][]span)
	for _, d := range demands {
		byKind[d.Kind] = append(byKind[d.Kind], span{start: d.Start, end: d.End})
	}

	kinds := make([]model.ResourceKind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		requested := byKind[kind]
		limit := capacity(kind)

		all := append([]span(nil), requested...)
		for i := range l.bookings {
			b := &l.bookings[i]
			if b.Uses(kind) {
				all = append(all, span{start: b.Start, end: b.End})
			}
		}

		for _, r := range requested {
			if peak(all, r.start, r.end) > limit {
				return kind, false
			}
		}
	}

	return "", true
}

type span struct {
	start time.Time
	end   time.Time
}

func (s span) contains(t time.Time) bool {
	return !t.Before(s.start) && t.Before(s.end)
}

// peak максимум одновременно активных интервалов на [from, to).
// Функция кусочно-постоянна и растёт только в начале интервала,
// поэтому достаточно проверить from и все начала внутри окна
func peak(spans []span, from, to time.Time) int {
	points := []time.Time{from}
	for _, s := range spans {
		if s.start.After(from) && s.start.Before(to) {
			points = append(points, s.start)
		}
	}

	best := 0
	for _, p := range points {
		n := 0
		for _, s := range spans {
			if s.contains(p) {
				n++
			}
		}
		if n > best {
			best = n
		}
	}
	return best
}
