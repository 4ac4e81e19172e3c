// Package protocol implements the line framing of the cooker's text protocol.
//
// Commands are ASCII lines terminated by a carriage return. The device answers
// every command with exactly one notification carrying the response text,
// usually followed by "\r\n" or padding.
package protocol

import (
	"errors"
	"strings"
)

// Terminator ends every command line written to the characteristic.
const Terminator = "\r"

// ErrEmptyCommand is returned when framing a blank command.
var ErrEmptyCommand = errors.New("protocol: empty command")

// Frame renders a command as a single terminated line. The command text is
// sent as is; embedded line breaks are rejected because the device would treat
// them as two commands and answer twice.
func Frame(command string) ([]byte, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	if strings.ContainsAny(command, "\r\n") {
		return nil, errors.New("protocol: command must be a single line")
	}
	return []byte(command + Terminator), nil
}

// ParseResponse extracts the response text from a notification payload.
func ParseResponse(payload []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(payload), "\x00"))
}
