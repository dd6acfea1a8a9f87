package errors

import (
	"errors"

	"perpwatch/pkg/errors/ecode"
)

// Err 带业务错误码的错误，响应层用它决定错误码和提示
type Err struct {
	Code    int
	Message string
	Err     error
}

func (e *Err) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Err) Unwrap() error {
	return e.Err
}

// New 按错误码构造业务错误
func New(code int) *Err {
	return &Err{Code: code, Message: ecode.Message(code)}
}

// Wrap 按错误码包装底层错误
func Wrap(code int, err error) *Err {
	return &Err{Code: code, Message: ecode.Message(code), Err: err}
}

// WithMessage 覆盖默认提示
func (e *Err) WithMessage(msg string) *Err {
	e.Message = msg
	return e
}

// DecodeErr 把任意错误翻译成 (code, message)。
// nil 为成功，非业务错误一律按内部错误处理。
func DecodeErr(err error) (int, string) {
	if err == nil {
		return ecode.Success, ecode.Message(ecode.Success)
	}
	var e *Err
	if errors.As(err, &e) {
		return e.Code, e.Message
	}
	return ecode.InternalErr, err.Error()
}
