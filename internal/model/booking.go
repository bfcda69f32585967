package model

import "time"

type ResourceKind string

const (
	ResourceBody ResourceKind = "body" // кресла/кушетки для массажа тела
	ResourceFoot ResourceKind = "foot" // кресла для массажа стоп
)

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Booking одна запись во внешнем календаре. Интервал полуоткрытый: [Start, End)
type Booking struct {
	ID           string         `json:"id"`
	ServiceID    string         `json:"service_id"`
	ServiceLabel string         `json:"service_label"`
	Kinds        []ResourceKind `json:"kinds"`
	Start        time.Time      `json:"start"`
	End          time.Time      `json:"end"`
	Practitioner string         `json:"practitioner,omitempty"` // пусто - мастер не назначен
	Customer     Customer       `json:"customer"`
	PartyID      string         `json:"party_id,omitempty"`
	GuestIndex   int            `json:"guest_index"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Overlaps строгое пересечение: касание концами пересечением не считается
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// Uses проверяет, занимает ли запись ресурс данного типа
func (b *Booking) Uses(kind ResourceKind) bool {
	for _, k := range b.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// DurationMinutes длительность записи в минутах
func (b *Booking) DurationMinutes() int {
	return int(b.End.Sub(b.Start) / time.Minute)
}
