package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/model"
)

// guestInput гость группы. service - id или название услуги
type guestInput struct {
	Service string `json:"service"`
	Master  string `json:"master"`
}

// bookingRequest принимает и одиночную форму {service, duration}, и групповую {guests: [...]}
type bookingRequest struct {
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Service         string       `json:"service"`
	Master          string       `json:"master"`
	Duration        int          `json:"duration"`
	AppointmentTime string       `json:"appointmentTime"`
	Guests          []guestInput `json:"guests"`
}

// localLayouts форматы без смещения, трактуются во времени магазина
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseAppointmentTime RFC3339 со смещением или локальное время магазина
func parseAppointmentTime(cat *catalog.Catalog, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, model.NewMalformedTime(raw, fmt.Errorf("empty value"))
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if lt, lerr := time.ParseInLocation(layout, raw, cat.Location()); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, model.NewMalformedTime(raw, err)
}

// parseDay дата YYYY-MM-DD в зоне магазина, пустая строка - нулевое время
func parseDay(cat *catalog.Catalog, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, cat.Location())
	if err != nil {
		return time.Time{}, model.NewMalformedTime(raw, err)
	}
	return day, nil
}

// resolveService id услуги по id или по названию (старый фронтенд присылает название)
func resolveService(cat *catalog.Catalog, raw string) (*model.Service, error) {
	raw = strings.TrimSpace(raw)
	if svc, err := cat.Lookup(raw); err == nil {
		return svc, nil
	}
	if svc, ok := cat.ByLabel(raw); ok {
		return svc, nil
	}
	return nil, model.NewInvalidService(raw)
}

// guests приводит обе формы запроса к списку гостей
func (r *bookingRequest) guests(cat *catalog.Catalog) ([]model.Guest, error) {
	inputs := r.Guests
	if len(inputs) == 0 && r.Service != "" {
		inputs = []guestInput{{Service: r.Service, Master: r.Master}}
	}

	guests := make([]model.Guest, 0, len(inputs))
	for _, in := range inputs {
		svc, err := resolveService(cat, in.Service)
		if err != nil {
			return nil, err
		}
		guests = append(guests, model.Guest{ServiceID: svc.ID, Practitioner: strings.TrimSpace(in.Master)})
	}

	// duration в одиночной форме должна совпадать с услугой
	if len(r.Guests) == 0 && r.Duration > 0 && len(guests) == 1 {
		svc, _ := cat.Lookup(guests[0].ServiceID)
		if svc.Duration != r.Duration {
			return nil, &model.Error{
				Code:    model.CodeInvalidService,
				Message: fmt.Sprintf("service %s lasts %d min, got duration %d", svc.ID, svc.Duration, r.Duration),
			}
		}
	}
	return guests, nil
}

// guestsFromQuery ?service=a&service=b&master=X - мастера сопоставляются по порядку
func guestsFromQuery(cat *catalog.Catalog, services, masters []string) ([]model.Guest, error) {
	guests := make([]model.Guest, 0, len(services))
	for i, raw := range services {
		svc, err := resolveService(cat, raw)
		if err != nil {
			return nil, err
		}
		g := model.Guest{ServiceID: svc.ID}
		if i < len(masters) {
			g.Practitioner = strings.TrimSpace(masters[i])
		}
		guests = append(guests, g)
	}
	return guests, nil
}
