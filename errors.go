package broadsheet

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by Store implementations. Handlers translate them
// into their HTTP-shaped counterparts below.
var (
	ErrNotFound      = errors.New("record not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrNameTaken     = errors.New("subreddit name already taken")
	ErrTitleTaken    = errors.New("title already taken in this subreddit")
	ErrAlreadyVoted  = errors.New("already voted on this entry")
	ErrNotSubscribed = errors.New("not subscribed to this subreddit")
)

type ErrorResponder interface {
	RespondError(w http.ResponseWriter, r *http.Request) bool
}

// respondMessage writes the error payload the API uses everywhere,
// a JSON object with a single message field.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// ValidationError responds with a bad request status code, carrying the
// business-rule violation message.
type ValidationError struct {
	message string
}

func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ValidationError: %v", e.message)
}

func (e *ValidationError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	respondMessage(w, http.StatusBadRequest, e.message)
	return true
}

// UnauthenticatedError responds with an unauthorized status code. The message
// distinguishes missing, invalid and expired credentials.
type UnauthenticatedError struct {
	message string
}

func Unauthenticated(message string) *UnauthenticatedError {
	return &UnauthenticatedError{message: message}
}

func (e *UnauthenticatedError) Error() string {
	return fmt.Sprintf("UnauthenticatedError: %v", e.message)
}

func (e *UnauthenticatedError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	respondMessage(w, http.StatusUnauthorized, e.message)
	return true
}

// ForbiddenError responds with a forbidden status code, for authenticated
// identities acting on records they don't own.
type ForbiddenError struct {
	message string
}

func Forbidden(message string) *ForbiddenError {
	return &ForbiddenError{message: message}
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("ForbiddenError: %v", e.message)
}

func (e *ForbiddenError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	respondMessage(w, http.StatusForbidden, e.message)
	return true
}

// Maybe404Error responds with a not found status code if its supplied error
// is ErrNotFound, deferring to the caller otherwise.
type Maybe404Error struct {
	err error
}

func Maybe404(err error) *Maybe404Error {
	return &Maybe404Error{err: err}
}

func (e *Maybe404Error) Error() string {
	return fmt.Sprintf("Maybe404: %v", e.err.Error())
}

func (e *Maybe404Error) Is404() bool {
	return errors.Is(e.err, ErrNotFound)
}

func (e *Maybe404Error) Unwrap() error {
	return e.err
}

func (e *Maybe404Error) RespondError(w http.ResponseWriter, r *http.Request) bool {
	if !e.Is404() {
		return false
	}

	respondMessage(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	return true
}

// ConflictError responds with a conflict status code, for uniqueness
// violations surfaced by the store.
type ConflictError struct {
	message string
}

func Conflict(message string) *ConflictError {
	return &ConflictError{message: message}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ConflictError: %v", e.message)
}

func (e *ConflictError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	respondMessage(w, http.StatusConflict, e.message)
	return true
}

// UnprocessableEntityError responds with an unprocessable entity status code,
// for state-conflict business rules such as double votes.
type UnprocessableEntityError struct {
	message string
}

func UnprocessableEntity(message string) *UnprocessableEntityError {
	return &UnprocessableEntityError{message: message}
}

func (e *UnprocessableEntityError) Error() string {
	return fmt.Sprintf("UnprocessableEntityError: %v", e.message)
}

func (e *UnprocessableEntityError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	respondMessage(w, http.StatusUnprocessableEntity, e.message)
	return true
}

// BadRequestError responds with a bad request status code, for malformed
// requests (unreadable bodies, bad headers) as opposed to business-rule
// violations.
type BadRequestError struct {
	message string
}

func BadRequest(message string) *BadRequestError {
	return &BadRequestError{message: message}
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("BadRequestError: %v", e.message)
}

func (e *BadRequestError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	respondMessage(w, http.StatusBadRequest, e.message)
	return true
}
