package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the error type returned by every package of the ledger. It carries a machine readable
// code, a human readable message, an optional wrapped cause and an optional key/value payload.
type Error struct {
	code       ERR
	message    string
	wrappedErr error
	data       ErrDataI
}

type Interface interface {
	Error() string
	Is(target error) bool
	As(target interface{}) bool
	Unwrap() error

	Code() ERR
	Message() string
	WrappedErr() error
	Data() ErrDataI
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (%d): %s", e.code.Enum(), e.code, e.message)

	if e.wrappedErr != nil {
		fmt.Fprintf(&sb, " -> %v", e.wrappedErr)
	}

	if e.data != nil {
		fmt.Fprintf(&sb, " [data:%s]", e.data.Error())
	}

	return sb.String()
}

// Is matches on the error code of e or of any *Error further down the wrap chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}

	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}

	for cur := e; cur != nil; {
		if cur.code == t.code {
			return true
		}

		next, ok := cur.wrappedErr.(*Error)
		if !ok {
			return false
		}

		cur = next
	}

	return false
}

func (e *Error) As(target interface{}) bool {
	if e == nil {
		return false
	}

	if targetErr, ok := target.(**Error); ok {
		*targetErr = e
		return true
	}

	if data, ok := e.data.(error); ok && data != nil {
		if errors.As(data, target) {
			return true
		}
	}

	if e.wrappedErr != nil {
		return errors.As(e.wrappedErr, target)
	}

	return false
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Code() ERR {
	if e == nil {
		return ERR_UNKNOWN
	}

	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

func (e *Error) WrappedErr() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Data() ErrDataI {
	if e == nil {
		return nil
	}

	return e.data
}

// WithData attaches a key/value pair to the error and returns it, so it can be chained on a constructor.
func (e *Error) WithData(key string, value interface{}) *Error {
	if e.data == nil {
		e.data = &ErrData{}
	}

	e.data.SetData(key, value)

	return e
}

func (e *Error) GetData(key string) interface{} {
	if e.data == nil {
		return nil
	}

	return e.data.GetData(key)
}

// New creates an error with the given code. The message is a format string for params; when the
// last param is an error it is not formatted but kept as the wrapped cause.
func New(code ERR, message string, params ...interface{}) *Error {
	var cause error

	if n := len(params); n > 0 {
		if err, ok := params[n-1].(error); ok {
			cause = err
			params = params[:n-1]
		}
	}

	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}

	if _, ok := ERR_name[int32(code)]; !ok {
		message = "invalid error code: " + message
	}

	return &Error{
		code:       code,
		message:    message,
		wrappedErr: cause,
	}
}

// Join concatenates the messages of the non-nil errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// AsData reports whether the payload of err, or of any error it wraps, matches target.
func AsData(err error, target interface{}) bool {
	var e *Error
	for errors.As(err, &e) && e != nil {
		if e.data != nil && errors.As(e.data, target) {
			return true
		}

		err = e.wrappedErr
		e = nil
	}

	return false
}

// CodeOf returns the code of the outermost *Error in the chain, or ERR_UNKNOWN.
func CodeOf(err error) ERR {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}

	return ERR_UNKNOWN
}
