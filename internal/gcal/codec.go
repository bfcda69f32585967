package gcal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/model"
	"google.golang.org/api/calendar/v3"
)

// Ключи ExtendedProperties.Private
const (
	propService      = "service"
	propPractitioner = "practitioner"
	propParty        = "party"
	propGuest        = "guest"
	propKinds        = "kinds"
	propCustomer     = "customer"
	propPhone        = "phone"
)

const (
	summarySep  = " 預約："
	phonePrefix = "電話："
)

// encodeEvent событие календаря для записи: человекочитаемые поля плюс метаданные
func encodeEvent(cat *catalog.Catalog, b *model.Booking) *calendar.Event {
	loc := cat.Location()

	kinds := make([]string, 0, len(b.Kinds))
	for _, k := range b.Kinds {
		kinds = append(kinds, string(k))
	}

	ev := &calendar.Event{
		Summary:     b.ServiceLabel + summarySep + b.Customer.Name,
		Description: phonePrefix + b.Customer.Phone,
		Start: &calendar.EventDateTime{
			DateTime: b.Start.In(loc).Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: b.End.In(loc).Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				propService:      b.ServiceID,
				propPractitioner: b.Practitioner,
				propParty:        b.PartyID,
				propGuest:        strconv.Itoa(b.GuestIndex),
				propKinds:        strings.Join(kinds, ","),
				propCustomer:     b.Customer.Name,
				propPhone:        b.Customer.Phone,
			},
		},
	}

	if color, ok := cat.PractitionerColor(b.Practitioner); ok {
		ev.ColorId = color
	}
	return ev
}

// decodeEvent восстанавливает записи из события. Событие с метаданными даёт одну запись.
// Старое событие без метаданных разбирается по названию услуги и цвету мастера,
// составная услуга при этом раскладывается на компоненты
func decodeEvent(cat *catalog.Catalog, ev *calendar.Event) ([]model.Booking, error) {
	if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
		return nil, fmt.Errorf("event %s has no start/end time", ev.Id)
	}
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return nil, fmt.Errorf("parse start of %s: %w", ev.Id, err)
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return nil, fmt.Errorf("parse end of %s: %w", ev.Id, err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("event %s ends before it starts", ev.Id)
	}

	var props map[string]string
	if ev.ExtendedProperties != nil {
		props = ev.ExtendedProperties.Private
	}
	if props[propService] != "" {
		b, err := decodeStructured(cat, ev, props, start, end)
		if err != nil {
			return nil, err
		}
		return []model.Booking{b}, nil
	}
	return decodeLegacy(cat, ev, start, end)
}

func decodeStructured(cat *catalog.Catalog, ev *calendar.Event, props map[string]string, start, end time.Time) (model.Booking, error) {
	b := model.Booking{
		ID:           ev.Id,
		ServiceID:    props[propService],
		Start:        start,
		End:          end,
		Practitioner: props[propPractitioner],
		PartyID:      props[propParty],
		Customer: model.Customer{
			Name:  props[propCustomer],
			Phone: props[propPhone],
		},
	}

	if raw := props[propGuest]; raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return model.Booking{}, fmt.Errorf("event %s: bad guest index %q", ev.Id, raw)
		}
		b.GuestIndex = idx
	}

	svc, lookupErr := cat.Lookup(b.ServiceID)
	if lookupErr == nil {
		b.ServiceLabel = svc.Label
	}

	for _, k := range strings.Split(props[propKinds], ",") {
		if k = strings.TrimSpace(k); k != "" {
			b.Kinds = append(b.Kinds, model.ResourceKind(k))
		}
	}
	if len(b.Kinds) == 0 {
		// без списка ресурсов берём их из каталога
		if lookupErr != nil {
			return model.Booking{}, fmt.Errorf("event %s: %w", ev.Id, lookupErr)
		}
		b.Kinds = svc.Kinds
	}

	if b.Customer.Name == "" {
		_, b.Customer.Name = splitSummary(ev.Summary)
	}
	if b.Customer.Phone == "" {
		b.Customer.Phone = strings.TrimPrefix(ev.Description, phonePrefix)
	}
	if b.Practitioner == "" {
		b.Practitioner, _ = cat.PractitionerByColor(ev.ColorId)
	}
	return b, nil
}

func decodeLegacy(cat *catalog.Catalog, ev *calendar.Event, start, end time.Time) ([]model.Booking, error) {
	label, name := splitSummary(ev.Summary)
	practitioner, _ := cat.PractitionerByColor(ev.ColorId)
	customer := model.Customer{
		Name:  name,
		Phone: strings.TrimSpace(strings.TrimPrefix(ev.Description, phonePrefix)),
	}

	svc, ok := cat.ByLabel(label)
	if !ok {
		// событие, внесённое вручную, всё равно занимает место
		kind, counted := cat.UnknownEventKind()
		if !counted {
			return nil, fmt.Errorf("event %s: unknown service label %q", ev.Id, label)
		}
		return []model.Booking{{
			ID:           ev.Id,
			ServiceLabel: label,
			Kinds:        []model.ResourceKind{kind},
			Start:        start,
			End:          end,
			Practitioner: practitioner,
			Customer:     customer,
		}}, nil
	}

	bookings := make([]model.Booking, 0, len(svc.Components))
	cursor := start
	for i, comp := range svc.Components {
		segEnd := cursor.Add(time.Duration(comp.Minutes) * time.Minute)
		// последний компонент тянется до фактического конца события
		if i == len(svc.Components)-1 || segEnd.After(end) {
			segEnd = end
		}
		bookings = append(bookings, model.Booking{
			ID:           ev.Id,
			ServiceID:    comp.ServiceID,
			ServiceLabel: comp.Label,
			Kinds:        comp.Kinds,
			Start:        cursor,
			End:          segEnd,
			Practitioner: practitioner,
			Customer:     customer,
		})
		cursor = segEnd
		if !cursor.Before(end) {
			break
		}
	}
	return bookings, nil
}

// splitSummary "<услуга> 預約：<имя>" -> услуга, имя
func splitSummary(summary string) (string, string) {
	label, name, found := strings.Cut(summary, summarySep)
	if !found {
		return strings.TrimSpace(summary), ""
	}
	return strings.TrimSpace(label), strings.TrimSpace(name)
}
