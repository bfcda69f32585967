package model

import "time"

// AuditRow строка журнала: дата, имя, телефон, услуга, длительность, время, мастер
type AuditRow struct {
	Date         string    `json:"date"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	Service      string    `json:"service"`
	Duration     int       `json:"duration"`
	Time         string    `json:"time"`
	Practitioner string    `json:"practitioner"`
	Start        time.Time `json:"-"`
}
