package catalog

import (
	"fmt"
	"time"
)

type HoursCheck struct {
	Valid  bool
	Reason string
}

// DayBounds время открытия и закрытия в день t (по часовому поясу магазина).
// ok == false, если в этот день магазин закрыт
func (c *Catalog) DayBounds(t time.Time) (opening, closing time.Time, ok bool) {
	local := t.In(c.loc)
	h := c.hours[local.Weekday()]
	if h.Open == h.Close {
		return time.Time{}, time.Time{}, false
	}
	y, m, d := local.Date()
	opening = time.Date(y, m, d, h.Open, 0, 0, 0, c.loc)
	closing = time.Date(y, m, d, h.Close, 0, 0, 0, c.loc)
	return opening, closing, true
}

// IsWithinBusinessHours проверяет, что [start, start+duration) целиком внутри рабочего дня.
// Сравнение поминутное: начало ровно в час открытия и конец ровно в час закрытия допустимы
func (c *Catalog) IsWithinBusinessHours(start time.Time, durationMinutes int) HoursCheck {
	opening, closing, ok := c.DayBounds(start)
	if !ok {
		return HoursCheck{Reason: fmt.Sprintf("closed on %s", start.In(c.loc).Weekday())}
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	if start.Before(opening) {
		return HoursCheck{Reason: fmt.Sprintf("opens at %s", opening.Format("15:04"))}
	}
	if end.After(closing) {
		return HoursCheck{Reason: fmt.Sprintf("closes at %s", closing.Format("15:04"))}
	}
	return HoursCheck{Valid: true}
}

// StartOfDay полночь дня t в часовом поясе магазина
func (c *Catalog) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}
