package services

// ErrorKind classifies business errors so the HTTP layer can map them to
// status codes without string matching.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindPermission   ErrorKind = "permission"
	KindInvalidState ErrorKind = "invalid_state"
	KindConflict     ErrorKind = "conflict"
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func PermissionError(message string) *Error {
	return &Error{Kind: KindPermission, Message: message}
}

func InvalidStateError(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func ConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}
