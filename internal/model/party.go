package model

import "time"

// Guest один гость в групповой записи
type Guest struct {
	ServiceID    string `json:"service"`
	Practitioner string `json:"master,omitempty"`
}

// Party группа гостей с общим временем начала
type Party struct {
	Customer Customer  `json:"customer"`
	Guests   []Guest   `json:"guests"`
	Start    time.Time `json:"start"`
}
