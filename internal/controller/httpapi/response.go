package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response общий конверт ответов API
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code         string             `json:"code"`
	Message      string             `json:"message"`
	Kind         model.ResourceKind `json:"kind,omitempty"`
	Capacity     int                `json:"capacity,omitempty"`
	Practitioner string             `json:"practitioner,omitempty"`
	EventIDs     []string           `json:"event_ids,omitempty"`
	Suggestion   string             `json:"suggestion,omitempty"` // ближайшее свободное время, RFC3339
}

const codeBadRequest = "BadRequest"

// statusFor HTTP-статус для кода ошибки
func statusFor(code model.ErrorCode) int {
	switch code {
	case model.CodeInvalidService, model.CodeInvalidPartySize, model.CodeMalformedTime:
		return http.StatusBadRequest
	case model.CodePastTime, model.CodeOutOfHours:
		return http.StatusUnprocessableEntity
	case model.CodeCapacityExceeded, model.CodePractitionerBusy, model.CodeNoSlot:
		return http.StatusConflict
	case model.CodeUpstreamUnavailable, model.CodePartialCommitFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   &ErrorBody{Code: codeBadRequest, Message: message},
	})
}

// respondError доменные ошибки отдаются с кодом и деталями, остальные - 500 без подробностей
func (h *Handler) respondError(c *gin.Context, err error, suggestion string) {
	derr, ok := model.AsError(err)
	if !ok {
		h.logger.Error("Unhandled API error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   &ErrorBody{Code: "Internal", Message: "internal server error"},
		})
		return
	}

	status := statusFor(derr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Upstream failure", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, Response{
		Success: false,
		Error: &ErrorBody{
			Code:         string(derr.Code),
			Message:      derr.Message,
			Kind:         derr.Kind,
			Capacity:     derr.Capacity,
			Practitioner: derr.Practitioner,
			EventIDs:     derr.EventIDs,
			Suggestion:   suggestion,
		},
	})
}
