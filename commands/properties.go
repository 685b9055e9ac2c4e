package commands

import (
	"github.com/mobile-next/gestures/interpreter"
	"github.com/mobile-next/gestures/props"
)

// PropertiesRequest represents the parameters for listing properties
type PropertiesRequest struct {
	PropsPath string `json:"propsPath,omitempty"`
}

// PropertyInfo describes one registered property
type PropertyInfo struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// PropertiesResponse represents the response for a properties command
type PropertiesResponse struct {
	Properties        []PropertyInfo `json:"properties"`
	UnknownProperties []string       `json:"unknownProperties,omitempty"`
}

// PropertiesCommand lists every property the standard pipeline registers,
// with overrides from PropsPath applied
func PropertiesCommand(req PropertiesRequest) *CommandResponse {
	reg := props.NewRegistry()
	interpreter.NewPipeline(reg)

	var unknown []string
	if req.PropsPath != "" {
		var err error
		unknown, err = props.LoadFile(reg, req.PropsPath)
		if err != nil {
			return NewErrorResponse(err)
		}
	}

	return NewSuccessResponse(PropertiesResponse{
		Properties:        DescribeProperties(reg),
		UnknownProperties: unknown,
	})
}

// DescribeProperties lists reg's properties sorted by name
func DescribeProperties(reg *props.Registry) []PropertyInfo {
	all := reg.All()
	out := make([]PropertyInfo, 0, len(all))
	for _, p := range all {
		out = append(out, PropertyInfo{
			Name:  p.Name(),
			Type:  p.Type().String(),
			Value: p.Value(),
		})
	}
	return out
}
