package commands

import (
	"fmt"

	"github.com/mobile-next/gestures/types"
	"github.com/mobile-next/gestures/utils"
)

// InterpretRequest represents the parameters for running frames through a
// fresh pipeline
type InterpretRequest struct {
	FramesPath             string `json:"framesPath"`
	HardwarePropertiesPath string `json:"hardwarePropertiesPath,omitempty"`
	PropsPath              string `json:"propsPath,omitempty"`
	TraceOut               string `json:"traceOut,omitempty"` // file path, "-" for stdout, or empty for none
	LogCapacity            int    `json:"logCapacity,omitempty"`
}

// InterpretResponse represents the response for an interpret command
type InterpretResponse struct {
	Gestures          []types.Gesture `json:"gestures"`
	Metrics           map[string]int  `json:"metrics"`
	PendingDeadline   *float64        `json:"pendingDeadline,omitempty"`
	UnknownProperties []string        `json:"unknownProperties,omitempty"`
	TracePath         string          `json:"tracePath,omitempty"`
}

// InterpretCommand reads a frames file, runs it through the standard
// pipeline and optionally writes the activity trace
func InterpretCommand(req InterpretRequest) *CommandResponse {
	if req.FramesPath == "" {
		return NewErrorResponse(fmt.Errorf("frames file is required"))
	}

	hwprops, err := readHardwareProperties(req.HardwarePropertiesPath)
	if err != nil {
		return NewErrorResponse(err)
	}

	data, err := utils.ReadInput(req.FramesPath)
	if err != nil {
		return NewErrorResponse(err)
	}

	events, err := ParseEvents(data)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("invalid frames file: %w", err))
	}

	pipeline, unknown, err := NewPipeline(hwprops, req.LogCapacity, req.PropsPath)
	if err != nil {
		return NewErrorResponse(err)
	}

	gestures := pipeline.Run(events)
	if gestures == nil {
		gestures = []types.Gesture{}
	}

	response := InterpretResponse{
		Gestures:          gestures,
		Metrics:           pipeline.Driver.Metrics().Counts(),
		PendingDeadline:   pipeline.PendingDeadline(),
		UnknownProperties: unknown,
	}

	if req.TraceOut != "" {
		trace, err := pipeline.Driver.Log().Encode()
		if err != nil {
			return NewErrorResponse(err)
		}
		if err := utils.WriteOutput(req.TraceOut, trace); err != nil {
			return NewErrorResponse(fmt.Errorf("error writing trace: %w", err))
		}
		if req.TraceOut != "-" {
			response.TracePath = req.TraceOut
		}
	}

	return NewSuccessResponse(response)
}
