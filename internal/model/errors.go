package model

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeInvalidService       ErrorCode = "InvalidService"
	CodeInvalidPartySize     ErrorCode = "InvalidPartySize"
	CodePastTime             ErrorCode = "PastTime"
	CodeOutOfHours           ErrorCode = "OutOfHours"
	CodeCapacityExceeded     ErrorCode = "CapacityExceeded"
	CodePractitionerBusy     ErrorCode = "PractitionerBusy"
	CodeMalformedTime        ErrorCode = "MalformedTime"
	CodeUpstreamUnavailable  ErrorCode = "UpstreamUnavailable"
	CodePartialCommitFailure ErrorCode = "PartialCommitFailure"
	CodeNoSlot               ErrorCode = "NoSlot"
)

// Error ошибка предметной области с кодом и деталями для клиента
type Error struct {
	Code         ErrorCode    `json:"code"`
	Message      string       `json:"message"`
	Kind         ResourceKind `json:"kind,omitempty"`
	Capacity     int          `json:"capacity,omitempty"`
	Practitioner string       `json:"practitioner,omitempty"`
	EventIDs     []string     `json:"event_ids,omitempty"` // частично созданные записи
	Err          error        `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, чтобы работало errors.Is(err, model.ErrPastTime)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Recoverable - отказ по доступности, для которого можно предложить другое время
func (e *Error) Recoverable() bool {
	switch e.Code {
	case CodeCapacityExceeded, CodePractitionerBusy, CodeOutOfHours, CodePastTime:
		return true
	}
	return false
}

// Эталоны для errors.Is
var (
	ErrInvalidService       = &Error{Code: CodeInvalidService}
	ErrInvalidPartySize     = &Error{Code: CodeInvalidPartySize}
	ErrPastTime             = &Error{Code: CodePastTime}
	ErrOutOfHours           = &Error{Code: CodeOutOfHours}
	ErrCapacityExceeded     = &Error{Code: CodeCapacityExceeded}
	ErrPractitionerBusy     = &Error{Code: CodePractitionerBusy}
	ErrMalformedTime        = &Error{Code: CodeMalformedTime}
	ErrUpstreamUnavailable  = &Error{Code: CodeUpstreamUnavailable}
	ErrPartialCommitFailure = &Error{Code: CodePartialCommitFailure}
	ErrNoSlot               = &Error{Code: CodeNoSlot}
)

func NewInvalidService(serviceID string) *Error {
	return &Error{
		Code:    CodeInvalidService,
		Message: fmt.Sprintf("unknown service %q", serviceID),
	}
}

func NewInvalidPartySize(size, max int) *Error {
	return &Error{
		Code:    CodeInvalidPartySize,
		Message: fmt.Sprintf("party size %d is outside [1, %d]", size, max),
	}
}

func NewPastTime() *Error {
	return &Error{
		Code:    CodePastTime,
		Message: "requested start is in the past",
	}
}

func NewOutOfHours(reason string) *Error {
	return &Error{
		Code:    CodeOutOfHours,
		Message: reason,
	}
}

func NewCapacityExceeded(kind ResourceKind, capacity int) *Error {
	return &Error{
		Code:     CodeCapacityExceeded,
		Message:  fmt.Sprintf("no free %s places (capacity %d)", kind, capacity),
		Kind:     kind,
		Capacity: capacity,
	}
}

func NewPractitionerBusy(practitioner string) *Error {
	return &Error{
		Code:         CodePractitionerBusy,
		Message:      fmt.Sprintf("master %s is busy at this time", practitioner),
		Practitioner: practitioner,
	}
}

func NewMalformedTime(value string, err error) *Error {
	return &Error{
		Code:    CodeMalformedTime,
		Message: fmt.Sprintf("cannot parse time %q", value),
		Err:     err,
	}
}

func NewUpstreamUnavailable(op string, err error) *Error {
	return &Error{
		Code:    CodeUpstreamUnavailable,
		Message: op,
		Err:     err,
	}
}

func NewPartialCommitFailure(eventIDs []string, err error) *Error {
	return &Error{
		Code:     CodePartialCommitFailure,
		Message:  fmt.Sprintf("booking partially committed, orphaned events: %s", strings.Join(eventIDs, ", ")),
		EventIDs: eventIDs,
		Err:      err,
	}
}

func NewNoSlot() *Error {
	return &Error{
		Code:    CodeNoSlot,
		Message: "no available slot in the search window",
	}
}

// AsError достаёт *Error из цепочки обёрток
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
