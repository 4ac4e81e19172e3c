// Package mcptools exposes the cooker as Model Context Protocol tools.
package mcptools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chaz8081/gocirculate/internal/anova"
)

// Tool names
const (
	toolStatus       = "cooker_status"
	toolReadTemp     = "read_temperature"
	toolSetTemp      = "set_temperature"
	toolSetUnit      = "set_unit"
	toolStartCooking = "start_cooking"
	toolStopCooking  = "stop_cooking"
	toolSetTimer     = "set_timer"
	toolSetProgram   = "set_program"
)

const (
	defaultServerName  = "gocirculate"
	errCommandTemplate = "cooker command failed: %v"
)

// Server wraps an mcp-go server whose tools drive one cooker.
type Server struct {
	server *server.MCPServer
	ctrl   *anova.Controller
}

// NewServer creates the MCP server and registers all tools.
func NewServer(ctrl *anova.Controller, version string) *Server {
	s := &Server{
		server: server.NewMCPServer(
			defaultServerName,
			version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		ctrl: ctrl,
	}
	s.registerTools()
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.server
}

// ServeStdio serves the tools over stdin/stdout until input ends.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool(toolStatus,
		mcp.WithDescription("Report whether the cooker is running or stopped, or an error state such as low water"),
	), s.handleStatus)

	s.server.AddTool(mcp.NewTool(toolReadTemp,
		mcp.WithDescription("Read the current bath temperature, the target temperature and the unit"),
	), s.handleReadTemp)

	s.server.AddTool(mcp.NewTool(toolSetTemp,
		mcp.WithDescription("Set the target bath temperature in the cooker's current unit"),
		mcp.WithNumber("temp",
			mcp.Required(),
			mcp.Description("Target temperature, e.g. 57.5"),
		),
	), s.handleSetTemp)

	s.server.AddTool(mcp.NewTool(toolSetUnit,
		mcp.WithDescription("Switch the display unit between Celsius and Fahrenheit"),
		mcp.WithString("unit",
			mcp.Required(),
			mcp.Enum(string(anova.Celsius), string(anova.Fahrenheit)),
			mcp.Description("\"c\" or \"f\""),
		),
	), s.handleSetUnit)

	s.server.AddTool(mcp.NewTool(toolStartCooking,
		mcp.WithDescription("Start heating the bath to the target temperature"),
	), s.handleStart)

	s.server.AddTool(mcp.NewTool(toolStopCooking,
		mcp.WithDescription("Stop heating; this also stops the timer"),
	), s.handleStop)

	s.server.AddTool(mcp.NewTool(toolSetTimer,
		mcp.WithDescription("Set the cook timer and optionally start it"),
		mcp.WithNumber("minutes",
			mcp.Required(),
			mcp.Description("Timer length in minutes"),
		),
		mcp.WithBoolean("start",
			mcp.Description("Start the timer after setting it (the cooker must be running)"),
		),
	), s.handleSetTimer)

	s.server.AddTool(mcp.NewTool(toolSetProgram,
		mcp.WithDescription(fmt.Sprintf("Store a multi-step program; the cooker runs the first %d steps", anova.MaxProgramSteps)),
		mcp.WithArray("steps",
			mcp.Required(),
			mcp.Description("Steps in order, each {\"temp\": number, \"minutes\": integer}"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"temp":    map[string]any{"type": "number"},
					"minutes": map[string]any{"type": "integer"},
				},
				"required": []string{"temp", "minutes"},
			}),
		),
	), s.handleSetProgram)
}

// result converts a command outcome into a tool result. Command failures
// are tool errors so the model can see and report them.
func result(tool, resp string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		slog.Warn("tool call failed", "tool", tool, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf(errCommandTemplate, err)), nil
	}
	return mcp.NewToolResultText(resp), nil
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.ctrl.Status(ctx)
	return result(toolStatus, resp, err)
}

func (s *Server) handleReadTemp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := s.ctrl.ReadTemp(ctx)
	if err != nil {
		return result(toolReadTemp, "", err)
	}
	target, err := s.ctrl.ReadSetTemp(ctx)
	if err != nil {
		return result(toolReadTemp, "", err)
	}
	unit, err := s.ctrl.ReadUnit(ctx)
	if err != nil {
		return result(toolReadTemp, "", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("current: %s %s, target: %s %s", current, unit, target, unit)), nil
}

func (s *Server) handleSetTemp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	temp, err := req.RequireFloat("temp")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.ctrl.SetTemp(ctx, temp)
	return result(toolSetTemp, resp, err)
}

func (s *Server) handleSetUnit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unit, err := req.RequireString("unit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.ctrl.SetUnit(ctx, anova.Unit(unit))
	return result(toolSetUnit, resp, err)
}

func (s *Server) handleStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.ctrl.Start(ctx)
	return result(toolStartCooking, resp, err)
}

func (s *Server) handleStop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.ctrl.Stop(ctx)
	return result(toolStopCooking, resp, err)
}

func (s *Server) handleSetTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	minutes, err := req.RequireInt("minutes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.ctrl.SetTimer(ctx, minutes)
	if err != nil || !req.GetBool("start", false) {
		return result(toolSetTimer, resp, err)
	}
	started, err := s.ctrl.StartTimer(ctx)
	return result(toolSetTimer, resp+"\n"+started, err)
}

func (s *Server) handleSetProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	steps, err := parseSteps(req.GetArguments()["steps"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.ctrl.SetProgram(ctx, steps...)
	return result(toolSetProgram, resp, err)
}

// parseSteps decodes the steps argument, a JSON array of
// {"temp", "minutes"} objects.
func parseSteps(raw any) ([]anova.ProgramStep, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("steps must be an array of {temp, minutes} objects")
	}
	steps := make([]anova.ProgramStep, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("step %d must be an object", i+1)
		}
		temp, ok := obj["temp"].(float64)
		if !ok {
			return nil, fmt.Errorf("step %d: temp must be a number", i+1)
		}
		minutes, ok := obj["minutes"].(float64)
		if !ok || minutes != float64(int(minutes)) {
			return nil, fmt.Errorf("step %d: minutes must be an integer", i+1)
		}
		steps = append(steps, anova.ProgramStep{Temp: temp, Minutes: int(minutes)})
	}
	return steps, nil
}
