package handlers

import (
	"github.com/Freeeeeet/massage_booking/internal/controller/state"
	"github.com/Freeeeeet/massage_booking/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	booking      *service.BookingService
	stateManager *state.Manager
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(booking *service.BookingService, stateManager *state.Manager, logger *zap.Logger) *Handlers {
	return &Handlers{
		booking:      booking,
		stateManager: stateManager,
		logger:       logger,
	}
}
