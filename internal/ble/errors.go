package ble

import "errors"

// Link and session failures. Callers match them with errors.Is; the returned
// errors wrap the underlying driver error as well.
var (
	// ErrLinkUnavailable means the radio or the peripheral could not be reached.
	ErrLinkUnavailable = errors.New("link unavailable")
	// ErrConnect means the exclusive link could not be established. The
	// session stays disconnected and the caller may retry later.
	ErrConnect = errors.New("connect failed")
	// ErrLinkWrite means a write failed on a link assumed to be open.
	ErrLinkWrite = errors.New("link write failed")
	// ErrCommandTimeout means no notification arrived within the wait budget.
	// The command may or may not have been applied by the device.
	ErrCommandTimeout = errors.New("command timed out")
	// ErrEmptyBuffer means a response was read before any notification ever
	// arrived. Send reports it wrapped in ErrCommandTimeout.
	ErrEmptyBuffer = errors.New("no notification received")
)
