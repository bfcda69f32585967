package handlers

// Форматы аргументов команд
const (
	dayLayout   = "2006-01-02"
	clockLayout = "15:04"
)

// maxSlotsShown сколько времён показывать в ответе /slots
const maxSlotsShown = 40
