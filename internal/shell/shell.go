// Package shell provides an interactive command line for the cooker.
package shell

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/chaz8081/gocirculate/internal/anova"
)

// Shell handles the interactive prompt.
type Shell struct {
	ctrl *anova.Controller
	raw  anova.Sender
	out  io.Writer
	rl   *readline.Instance
}

// New creates a shell over the given sender. raw commands bypass the
// command set and go straight to the sender.
func New(sender anova.Sender) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "anova> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		ctrl: anova.NewController(sender),
		raw:  sender,
		out:  rl.Stdout(),
		rl:   rl,
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop. It returns when the user quits,
// input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		if quit := s.Exec(ctx, line); quit {
			return
		}
	}
}

// Exec runs one input line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "status", "s":
		s.print(s.ctrl.Status(ctx))

	case "temp", "t":
		s.cmdTemp(ctx)

	case "set-temp":
		s.cmdSetTemp(ctx, args)

	case "unit":
		s.cmdUnit(ctx, args)

	case "start":
		s.print(s.ctrl.Start(ctx))

	case "stop":
		s.print(s.ctrl.Stop(ctx))

	case "timer":
		s.cmdTimer(ctx, args)

	case "program":
		s.cmdProgram(ctx, args)

	case "led":
		s.cmdLED(ctx, args)

	case "date":
		s.cmdDate(ctx, args)

	case "cal":
		s.cmdCal(ctx, args)

	case "history":
		s.print(s.ctrl.ReadTemperatureHistory(ctx))

	case "name":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "Usage: name <bluetooth name>")
			return false
		}
		s.print(s.ctrl.SetBluetoothName(ctx, strings.Join(args, " ")))

	case "raw":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "Usage: raw <command...>")
			return false
		}
		s.print(s.raw.Send(ctx, strings.Join(args, " ")))

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Anova Commands:
  Cooking:
    status                 - Show running/stopped
    temp                   - Show current and target temperature
    set-temp <deg>         - Set the target temperature
    unit [c|f]             - Show or set the temperature unit
    start                  - Start heating
    stop                   - Stop heating

  Timer and programs:
    timer [min|start|stop] - Show, set, start or stop the timer
    program [status|start|stop|resume]
    program <t> <m> ...    - Upload steps as temperature/minutes pairs

  Device:
    led <r> <g> <b>        - Set the LED colour (0-255 each)
    date [set]             - Show the device clock, or set it to now
    cal [factor]           - Show or set the calibration factor
    history                - Show recent temperature readings
    name <name>            - Set the Bluetooth name
    raw <command...>       - Send a raw command line

  Other:
    help                   - Show this help
    quit                   - Exit`)
}

// print writes a command response or its error.
func (s *Shell) print(resp string, err error) {
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, resp)
}

func (s *Shell) cmdTemp(ctx context.Context) {
	current, err := s.ctrl.ReadTemp(ctx)
	if err != nil {
		s.print("", err)
		return
	}
	target, err := s.ctrl.ReadSetTemp(ctx)
	if err != nil {
		s.print("", err)
		return
	}
	unit, err := s.ctrl.ReadUnit(ctx)
	if err != nil {
		s.print("", err)
		return
	}
	fmt.Fprintf(s.out, "Current: %s %s\n", current, strings.ToUpper(unit))
	fmt.Fprintf(s.out, "Target:  %s %s\n", target, strings.ToUpper(unit))
}

func (s *Shell) cmdSetTemp(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: set-temp <deg>")
		return
	}
	deg, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid temperature: %s\n", args[0])
		return
	}
	s.print(s.ctrl.SetTemp(ctx, deg))
}

func (s *Shell) cmdUnit(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.print(s.ctrl.ReadUnit(ctx))
		return
	}
	s.print(s.ctrl.SetUnit(ctx, anova.Unit(strings.ToLower(args[0]))))
}

func (s *Shell) cmdTimer(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.print(s.ctrl.ReadTimer(ctx))
		return
	}
	switch args[0] {
	case "start":
		s.print(s.ctrl.StartTimer(ctx))
	case "stop":
		s.print(s.ctrl.StopTimer(ctx))
	default:
		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintln(s.out, "Usage: timer [minutes|start|stop]")
			return
		}
		s.print(s.ctrl.SetTimer(ctx, minutes))
	}
}

func (s *Shell) cmdProgram(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.print(s.ctrl.ReadProgramStatus(ctx))
		return
	}
	switch args[0] {
	case "status":
		s.print(s.ctrl.ReadProgramStatus(ctx))
		return
	case "start":
		s.print(s.ctrl.StartProgram(ctx))
		return
	case "stop":
		s.print(s.ctrl.StopProgram(ctx))
		return
	case "resume":
		s.print(s.ctrl.ResumeProgram(ctx))
		return
	}

	steps, err := parseSteps(args)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid program: %v\n", err)
		return
	}
	if len(steps) > anova.MaxProgramSteps {
		fmt.Fprintf(s.out, "Warning: the device only runs the first %d steps\n", anova.MaxProgramSteps)
	}
	s.print(s.ctrl.SetProgram(ctx, steps...))
}

// parseSteps reads "temp minutes" pairs.
func parseSteps(args []string) ([]anova.ProgramStep, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("expected temperature/minutes pairs, got %d values", len(args))
	}
	steps := make([]anova.ProgramStep, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		temp, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, fmt.Errorf("step %d: bad temperature %q", i/2+1, args[i])
		}
		minutes, err := strconv.Atoi(args[i+1])
		if err != nil {
			return nil, fmt.Errorf("step %d: bad minutes %q", i/2+1, args[i+1])
		}
		steps = append(steps, anova.ProgramStep{Temp: temp, Minutes: minutes})
	}
	return steps, nil
}

func (s *Shell) cmdLED(ctx context.Context, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(s.out, "Usage: led <r> <g> <b>")
		return
	}
	var rgb [3]int
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			fmt.Fprintf(s.out, "Invalid colour value: %s\n", a)
			return
		}
		rgb[i] = v
	}
	s.print(s.ctrl.SetLED(ctx, rgb[0], rgb[1], rgb[2]))
}

func (s *Shell) cmdDate(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.print(s.ctrl.ReadDate(ctx))
		return
	}
	if args[0] != "set" {
		fmt.Fprintln(s.out, "Usage: date [set]")
		return
	}
	s.print(s.ctrl.SetDate(ctx, time.Time{}))
}

func (s *Shell) cmdCal(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.print(s.ctrl.ReadCalibrationFactor(ctx))
		return
	}
	factor, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid calibration factor: %s\n", args[0])
		return
	}
	s.print(s.ctrl.SetCalibrationFactor(ctx, factor))
}
