// Package anova implements the command set of the Anova precision cooker.
//
// Every operation validates its arguments, renders exactly one command line,
// sends it over a Sender and returns the device's response text. Responses
// are free text ("running", "stopped", echoed commands, data lines) and are
// only trimmed; numeric coercion is left to the caller (see ParseTemp).
package anova

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidArgument is returned before any I/O when an argument is rejected.
var ErrInvalidArgument = errors.New("anova: invalid argument")

// Sender exchanges one command for one response. *ble.Session and
// *ble.IdleSession both satisfy it.
type Sender interface {
	Send(ctx context.Context, command string) (string, error)
}

// Unit is the device's temperature unit.
type Unit string

const (
	Celsius    Unit = "c"
	Fahrenheit Unit = "f"
)

// Calibration factor bounds, in degrees Celsius whatever the display unit.
const (
	MinCalibration = -9.9
	MaxCalibration = 9.9
)

// MaxProgramSteps is how many program steps the device honours. Extra steps
// are still sent; the device ignores them.
const MaxProgramSteps = 6

// ProgramStep is one (temperature, minutes) pair of a multi-step program.
type ProgramStep struct {
	Temp    float64
	Minutes int
}

// Controller issues cooker commands over a Sender.
type Controller struct {
	sender Sender
	now    func() time.Time
}

// NewController creates a Controller backed by the given sender.
// Panics if sender is nil (programmer error).
func NewController(sender Sender) *Controller {
	if sender == nil {
		panic("anova: NewController called with nil sender")
	}
	return &Controller{sender: sender, now: time.Now}
}

func (c *Controller) send(ctx context.Context, command string) (string, error) {
	return c.sender.Send(ctx, command)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// formatNumber renders a float the way the device firmware prints it:
// no exponent, and integral values keep a ".0" suffix.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseTemp converts a temperature response such as "72.5" to a float.
func ParseTemp(resp string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return 0, fmt.Errorf("anova: parse temperature %q: %w", resp, err)
	}
	return v, nil
}
