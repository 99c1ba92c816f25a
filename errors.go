package vfat32

import (
	"fmt"
	"syscall"
)

// DriverError is a wrapper around a system errno code with a customizable
// message. It covers spec §7's "Usage" error kind: caller mistakes such as
// asking for the data index of a cluster below 2. Errors from the block
// device are returned unchanged, not wrapped in a DriverError, and a short
// sector read surfaces as io.ErrUnexpectedEOF.
type DriverError struct {
	ErrnoCode syscall.Errno
	message   string
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.ErrnoCode.Error()
}

// Unwrap lets callers match the underlying errno with errors.Is.
func (e *DriverError) Unwrap() error {
	return e.ErrnoCode
}

// NewDriverError creates a DriverError with a default message derived from
// the errno code.
func NewDriverError(errnoCode syscall.Errno) *DriverError {
	return &DriverError{ErrnoCode: errnoCode, message: errnoCode.Error()}
}

// NewDriverErrorWithMessage creates a DriverError from an errno code with a
// custom message appended.
func NewDriverErrorWithMessage(errnoCode syscall.Errno, message string) *DriverError {
	return &DriverError{
		ErrnoCode: errnoCode,
		message:   fmt.Sprintf("%s: %s", errnoCode.Error(), message),
	}
}

// errnoInvalidCluster is raised when code asks for the data index of cluster
// 0 or 1, spec §7's "Usage" error kind.
const errnoInvalidCluster = syscall.EINVAL
