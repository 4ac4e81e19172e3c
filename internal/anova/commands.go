package anova

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Temperature commands

// ReadUnit returns the temperature unit, "c" or "f".
func (c *Controller) ReadUnit(ctx context.Context) (string, error) {
	return c.send(ctx, "read unit")
}

// SetUnit switches the display unit. The device answers with the new unit.
func (c *Controller) SetUnit(ctx context.Context, unit Unit) (string, error) {
	switch unit {
	case Celsius, Fahrenheit:
	default:
		return "", invalid("unit must be %q or %q, got %q", Celsius, Fahrenheit, unit)
	}
	return c.send(ctx, "set unit "+string(unit))
}

// ReadTemp returns the current bath temperature in the device's unit.
func (c *Controller) ReadTemp(ctx context.Context) (string, error) {
	return c.send(ctx, "read temp")
}

// ReadSetTemp returns the target temperature in the device's unit.
func (c *Controller) ReadSetTemp(ctx context.Context) (string, error) {
	return c.send(ctx, "read set temp")
}

// SetTemp sets the target temperature and returns it as echoed by the device.
func (c *Controller) SetTemp(ctx context.Context, degrees float64) (string, error) {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return "", invalid("temperature must be finite, got %v", degrees)
	}
	return c.send(ctx, "set temp "+formatNumber(degrees))
}

// ReadCalibrationFactor returns the calibration offset (displayed minus
// measured temperature, in Celsius). Factory value is 0.0.
func (c *Controller) ReadCalibrationFactor(ctx context.Context) (string, error) {
	return c.send(ctx, "read cal")
}

// SetCalibrationFactor sets the calibration offset in Celsius, in
// [-9.9, 9.9]. The device echoes the command.
func (c *Controller) SetCalibrationFactor(ctx context.Context, factor float64) (string, error) {
	if math.IsNaN(factor) || factor < MinCalibration || factor > MaxCalibration {
		return "", invalid("calibration factor must be in [%.1f, %.1f], got %v", MinCalibration, MaxCalibration, factor)
	}
	return c.send(ctx, "set cal "+formatNumber(factor))
}

// ReadTemperatureHistory returns the logged temperature entries, one
// "temp MM DD hh mm" line each.
func (c *Controller) ReadTemperatureHistory(ctx context.Context) (string, error) {
	return c.send(ctx, "read data")
}

// Device operation commands

// Status returns "running", "stopped", "low water", "heater error" or
// "power interrupt error".
func (c *Controller) Status(ctx context.Context) (string, error) {
	return c.send(ctx, "status")
}

// Start starts heating. The device answers "start" even when it refuses.
func (c *Controller) Start(ctx context.Context) (string, error) {
	return c.send(ctx, "start")
}

// Stop stops heating; it also stops the timer.
func (c *Controller) Stop(ctx context.Context) (string, error) {
	return c.send(ctx, "stop")
}

// Timer commands

// ReadTimer returns the minutes left and "running" or "stopped".
func (c *Controller) ReadTimer(ctx context.Context) (string, error) {
	return c.send(ctx, "read timer")
}

// SetTimer sets the timer in minutes and returns the value set.
func (c *Controller) SetTimer(ctx context.Context, minutes int) (string, error) {
	if minutes < 0 {
		return "", invalid("timer minutes must not be negative, got %d", minutes)
	}
	return c.send(ctx, "set timer "+strconv.Itoa(minutes))
}

// StartTimer starts the timer. The device must already be running.
func (c *Controller) StartTimer(ctx context.Context) (string, error) {
	return c.send(ctx, "start time")
}

// StopTimer stops the timer.
func (c *Controller) StopTimer(ctx context.Context) (string, error) {
	return c.send(ctx, "stop time")
}

// Program commands

// ReadProgramStatus returns "program" followed by the stored steps.
func (c *Controller) ReadProgramStatus(ctx context.Context) (string, error) {
	return c.send(ctx, "program status")
}

// SetProgram stores a multi-step program. All steps are sent; the device
// ignores steps beyond MaxProgramSteps.
func (c *Controller) SetProgram(ctx context.Context, steps ...ProgramStep) (string, error) {
	parts := make([]string, 0, len(steps))
	for i, st := range steps {
		if math.IsNaN(st.Temp) || math.IsInf(st.Temp, 0) {
			return "", invalid("program step %d: temperature must be finite", i+1)
		}
		if st.Minutes < 0 {
			return "", invalid("program step %d: minutes must not be negative, got %d", i+1, st.Minutes)
		}
		parts = append(parts, fmt.Sprintf("%s %d", formatNumber(st.Temp), st.Minutes))
	}
	return c.send(ctx, "set program "+strings.Join(parts, " "))
}

// StartProgram starts the stored program.
func (c *Controller) StartProgram(ctx context.Context) (string, error) {
	return c.send(ctx, "start program")
}

// StopProgram stops the running program.
func (c *Controller) StopProgram(ctx context.Context) (string, error) {
	return c.send(ctx, "stop program")
}

// ResumeProgram resumes a stopped program.
func (c *Controller) ResumeProgram(ctx context.Context) (string, error) {
	return c.send(ctx, "resume program")
}

// System commands

// SetLED sets the scroll wheel colour. Components are 0-255.
func (c *Controller) SetLED(ctx context.Context, red, green, blue int) (string, error) {
	for _, ch := range []struct {
		name  string
		value int
	}{{"red", red}, {"green", green}, {"blue", blue}} {
		if ch.value < 0 || ch.value > 255 {
			return "", invalid("%s must be an integer from 0-255, got %d", ch.name, ch.value)
		}
	}
	return c.send(ctx, fmt.Sprintf("set led %d %d %d", red, green, blue))
}

// SetBluetoothName renames the device. The device drops the link afterwards.
func (c *Controller) SetBluetoothName(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("bluetooth name must not be empty")
	}
	if strings.ContainsAny(name, "\r\n") {
		return "", invalid("bluetooth name must be a single line")
	}
	return c.send(ctx, "set name "+name)
}

// ReadDate returns the device clock as "YY MM DD hh mm". The clock does not
// run until it has been set once.
func (c *Controller) ReadDate(ctx context.Context) (string, error) {
	return c.send(ctx, "read date")
}

// SetDate sets the device clock (24 hour). A zero t means the current local
// time.
func (c *Controller) SetDate(ctx context.Context, t time.Time) (string, error) {
	if t.IsZero() {
		t = c.now()
	}
	return c.send(ctx, "set date "+t.Format("06 01 02 15 04"))
}
