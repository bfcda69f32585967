package state

import (
	"time"

	"github.com/Freeeeeet/massage_booking/internal/model"
)

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Состояния диалога записи /book
	StateBookingName  UserState = "booking_name"
	StateBookingPhone UserState = "booking_phone"
)

// Draft запись, собираемая в диалоге
type Draft struct {
	Guest model.Guest
	Start time.Time
	Name  string
}

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State     UserState
	Draft     Draft
	UpdatedAt time.Time
}
