package errs

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CodeError is the error currency of the backend: a stable numeric code,
// a wire kind (what clients see in the `error` event), a short message and
// an optional free-form detail.
type CodeError struct {
	Code   int    `json:"code"`
	Kind   string `json:"kind"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, kind, msg string) *CodeError {
	return &CodeError{Code: code, Kind: kind, Msg: msg}
}

func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Kind: e.Kind, Msg: e.Msg, Detail: d}
}

// Wrap attaches a stack trace to the error.
func (e *CodeError) Wrap() error {
	return errors.WithStack(e)
}

// WrapMsg clones the error, appends detail and attaches a stack trace.
func (e *CodeError) WrapMsg(detail string) error {
	return errors.WithStack(e.WithDetail(detail))
}

// Is reports whether err carries the same code, unwrapping as needed.
// Satisfies the errors.Is target contract.
func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !stderrors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// Unwrap walks a wrapped chain down to the innermost error.
func Unwrap(err error) error {
	for err != nil {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		inner := u.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
	return err
}

// AsCodeError extracts a *CodeError from err, or wraps an arbitrary error
// as an internal server error so callers always have a code to report.
func AsCodeError(err error) *CodeError {
	if err == nil {
		return nil
	}
	var ce *CodeError
	if stderrors.As(err, &ce) {
		return ce
	}
	return ErrInternal.WithDetail(err.Error())
}

func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

func WrapMsg(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
