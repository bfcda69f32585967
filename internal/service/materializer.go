package service

import (
	"github.com/Freeeeeet/massage_booking/internal/availability"
	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/model"
)

// Materialize раскладывает группу на записи календаря: по одной на каждый компонент услуги
// каждого гостя. Компоненты одного гостя идут друг за другом без зазоров
func Materialize(cat *catalog.Catalog, party model.Party, partyID string) ([]model.Booking, error) {
	var bookings []model.Booking
	for gi, guest := range party.Guests {
		svc, err := cat.Lookup(guest.ServiceID)
		if err != nil {
			return nil, err
		}

		for _, seg := range availability.Timeline(svc, party.Start) {
			bookings = append(bookings, model.Booking{
				ServiceID:    seg.Component.ServiceID,
				ServiceLabel: seg.Component.Label,
				Kinds:        seg.Component.Kinds,
				Start:        seg.Start,
				End:          seg.End,
				Practitioner: guest.Practitioner,
				Customer:     party.Customer,
				PartyID:      partyID,
				GuestIndex:   gi,
			})
		}
	}
	return bookings, nil
}

// lockKeys ключи блокировки: все типы ресурсов и все мастера группы
func lockKeys(cat *catalog.Catalog, guests []model.Guest) ([]string, error) {
	var keys []string
	for _, g := range guests {
		svc, err := cat.Lookup(g.ServiceID)
		if err != nil {
			return nil, err
		}
		for _, kind := range svc.Kinds {
			keys = append(keys, "kind:"+string(kind))
		}
		if g.Practitioner != "" {
			keys = append(keys, "master:"+g.Practitioner)
		}
	}
	return keys, nil
}

// auditRows строки журнала по созданным записям
func auditRows(cat *catalog.Catalog, bookings []model.Booking) []model.AuditRow {
	rows := make([]model.AuditRow, 0, len(bookings))
	for _, b := range bookings {
		local := b.Start.In(cat.Location())
		rows = append(rows, model.AuditRow{
			Date:         local.Format("2006-01-02"),
			CustomerName: b.Customer.Name,
			Phone:        b.Customer.Phone,
			Service:      b.ServiceLabel,
			Duration:     b.DurationMinutes(),
			Time:         local.Format("15:04"),
			Practitioner: b.Practitioner,
			Start:        b.Start,
		})
	}
	return rows
}
