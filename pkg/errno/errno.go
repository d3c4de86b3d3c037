package errno

import (
	"errors"
	"fmt"
)

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Wrap 在错误码上附加细节，errors.Is 仍可匹配到原始 Errno
func (e Errno) Wrap(detail string) error {
	return &Error{Errno: e, Detail: detail}
}

// Wrapf 同 Wrap，支持格式化
func (e Errno) Wrapf(format string, args ...any) error {
	return &Error{Errno: e, Detail: fmt.Sprintf(format, args...)}
}

// Error 是带细节的 Errno
type Error struct {
	Errno
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Errno
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var detailed *Error
	if errors.As(err, &detailed) {
		return detailed.Code, detailed.Error()
	}

	var plain Errno
	if errors.As(err, &plain) {
		return plain.Code, plain.Message
	}

	return ErrUnexpected.Code, err.Error()
}

// Is 判断 err 是否属于某个错误码
func Is(err error, target Errno) bool {
	code, _ := Decode(err)
	return err != nil && code == target.Code
}

// Common Errors
var (
	OK            = Errno{Code: 0, Message: "Success"}
	ErrUnexpected = Errno{Code: 10001, Message: "Unexpected error"}
)

// Field validation errors (30100+)
var (
	ErrInvalidAddress = Errno{Code: 30101, Message: "Entered address is not valid"}
	ErrInvalidAmount  = Errno{Code: 30102, Message: "Amount must be a number"}
	ErrInvalidNonce   = Errno{Code: 30103, Message: "Nonce must be an integer"}
	ErrPrecision      = Errno{Code: 30104, Message: "Amount has more precision than the atomic unit allows"}
)

// Wallet / session errors
var (
	ErrInvalidPrivateKey = Errno{Code: 30201, Message: "Invalid private key"}
	ErrNotSeeded         = Errno{Code: 30301, Message: "Nonce has not been set for this session"}
	ErrSigningFailure    = Errno{Code: 30401, Message: "Signing failed"}
	ErrCancelled         = Errno{Code: 30501, Message: "Operation cancelled"}
)
