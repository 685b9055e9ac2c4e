package commands

import (
	"fmt"

	"github.com/mobile-next/gestures/interpreter"
	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/replay"
	"github.com/mobile-next/gestures/utils"
)

// ReplayRequest represents the parameters for replaying a trace
type ReplayRequest struct {
	TracePath  string   `json:"tracePath,omitempty"`
	Trace      []byte   `json:"-"`
	HonorProps []string `json:"honorProps,omitempty"`
	PropsPath  string   `json:"propsPath,omitempty"`
}

// ReplayCommand parses a trace and replays it through a fresh standard
// pipeline. Divergences are reported in the data, not as an error.
func ReplayCommand(req ReplayRequest) *CommandResponse {
	data := req.Trace
	if data == nil {
		if req.TracePath == "" {
			return NewErrorResponse(fmt.Errorf("trace file is required"))
		}
		var err error
		data, err = utils.ReadInput(req.TracePath)
		if err != nil {
			return NewErrorResponse(err)
		}
	}

	reg := props.NewRegistry()
	chain := interpreter.NewPipeline(reg)
	if req.PropsPath != "" {
		if _, err := props.LoadFile(reg, req.PropsPath); err != nil {
			return NewErrorResponse(err)
		}
	}

	r := replay.New(reg)
	if err := r.Parse(data, req.HonorProps...); err != nil {
		return NewErrorResponse(fmt.Errorf("error parsing trace: %w", err))
	}

	report := r.Replay(chain)
	if report.Divergences == nil {
		report.Divergences = []replay.Divergence{}
	}
	utils.Verbose("replayed %d entries, %d divergences", report.Entries, len(report.Divergences))
	return NewSuccessResponse(report)
}
