package ignix

import (
	"syscall"

	"github.com/cyclechain/ignix/internal/interfaces"
)

// Error is the structured error this module's operations surface: bind and
// config failures, AOF open/write/sync failures, AOF queue saturation, and
// reactor accept/epoll faults all end up as one of these (RESP decode
// failures use resp.ProtocolError instead). It is an alias of
// interfaces.Error so internal packages (which cannot import the root
// package without a cycle) construct the very same type.
type Error = interfaces.Error

// ErrorCode represents high-level error categories.
type ErrorCode = interfaces.ErrorCode

const (
	ErrCodeProtocol    = interfaces.ErrCodeProtocol
	ErrCodeIO          = interfaces.ErrCodeIO
	ErrCodeCapacity    = interfaces.ErrCodeCapacity
	ErrCodeClosed      = interfaces.ErrCodeClosed
	ErrCodeBindFailed  = interfaces.ErrCodeBindFailed
	ErrCodeAOFDisabled = interfaces.ErrCodeAOFDisabled
	ErrCodeInvalid     = interfaces.ErrCodeInvalid
)

// NewError creates a new structured error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return interfaces.NewError(op, code, msg)
}

// NewErrorWithErrno creates a new structured error with errno.
func NewErrorWithErrno(op string, code ErrorCode, errno syscall.Errno) *Error {
	return interfaces.NewErrorWithErrno(op, code, errno)
}

// WrapError wraps an existing error with ignix context.
func WrapError(op string, inner error) *Error {
	return interfaces.WrapError(op, inner)
}

// mapErrnoToCode maps syscall errno to ignix error codes.
func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	return interfaces.MapErrnoToCode(errno)
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return interfaces.IsCode(err, code)
}

// IsErrno checks if an error matches a specific errno.
func IsErrno(err error, errno syscall.Errno) bool {
	return interfaces.IsErrno(err, errno)
}
