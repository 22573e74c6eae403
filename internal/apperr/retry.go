package apperr

import (
	"errors"
	"net"
	"os"
	"syscall"
)

// Retriable reports whether the error code describes a transient failure.
func (e *Error) Retriable() bool {
	switch e.Code {
	case FetchFailed, SaveFailed, SchedulingFail:
		return true
	default:
		return false
	}
}

// IsRetriable is the default retry policy. Taxonomy errors follow
// Retriable; foreign errors are retried only when they look like a
// transient network failure.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Retriable()
	}
	return IsTransientNetwork(err)
}

// IsTransientNetwork recognizes timeouts, refused connections and dropped
// connections.
func IsTransientNetwork(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.EHOSTUNREACH,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EPIPE,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
