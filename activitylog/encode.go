package activitylog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
	"github.com/mobile-next/gestures/utils"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FormatVersion is written to every encoded trace.
const FormatVersion = 1

const schemaURL = "trace.schema.json"

//go:embed trace.schema.json
var traceSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type document struct {
	Version            int                      `json:"version"`
	GesturesVersion    string                   `json:"gesturesVersion"`
	HardwareProperties types.HardwareProperties `json:"hardwareProperties"`
	Properties         map[string]interface{}   `json:"properties"`
	PropertyTypes      map[string]string        `json:"propertyTypes"`
	Entries            []json.RawMessage        `json:"entries"`
}

// Trace is a decoded activity log document.
type Trace struct {
	Version            int
	GesturesVersion    string
	HardwareProperties types.HardwareProperties
	Properties         map[string]interface{}
	// PropertyTypes is empty for traces written before types were recorded
	PropertyTypes map[string]props.Type
	Entries       []Entry
}

// Encode writes the log as an indented JSON document, oldest entry first.
func (l *ActivityLog) Encode() ([]byte, error) {
	doc := document{
		Version:            FormatVersion,
		GesturesVersion:    utils.Version(),
		HardwareProperties: l.hwprops,
		Properties:         l.registry.Snapshot(),
		PropertyTypes:      make(map[string]string),
		Entries:            make([]json.RawMessage, 0, l.size),
	}
	for _, p := range l.registry.All() {
		doc.PropertyTypes[p.Name()] = p.Type().String()
	}

	for i := 0; i < l.size; i++ {
		data, err := MarshalEntry(l.Entry(i))
		if err != nil {
			return nil, fmt.Errorf("failed to encode entry %d: %w", i, err)
		}
		doc.Entries = append(doc.Entries, data)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity log: %w", err)
	}
	return out, nil
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(traceSchema)); err != nil {
			schemaErr = fmt.Errorf("add trace schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Validate checks data against the trace schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var instance interface{}
	if err := decoder.Decode(&instance); err != nil {
		return fmt.Errorf("malformed trace: %w", err)
	}

	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("trace does not match schema: %w", err)
	}
	return nil
}

// Decode validates and parses an encoded trace. Nothing is returned unless
// the whole document parsed.
func Decode(data []byte) (*Trace, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var doc document
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed trace: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("unsupported trace version %d", doc.Version)
	}

	trace := &Trace{
		Version:            doc.Version,
		GesturesVersion:    doc.GesturesVersion,
		HardwareProperties: doc.HardwareProperties,
		Properties:         make(map[string]interface{}, len(doc.Properties)),
		PropertyTypes:      make(map[string]props.Type, len(doc.PropertyTypes)),
		Entries:            make([]Entry, 0, len(doc.Entries)),
	}
	for name, typeName := range doc.PropertyTypes {
		t, err := props.ParseType(typeName)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		trace.PropertyTypes[name] = t
	}
	for name, value := range doc.Properties {
		t, ok := trace.PropertyTypes[name]
		if !ok {
			trace.Properties[name] = SnapshotValue(value)
			continue
		}
		v, err := coerceValue(t, value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		trace.Properties[name] = v
	}

	for i, raw := range doc.Entries {
		e, err := UnmarshalEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		trace.Entries = append(trace.Entries, e)
	}

	return trace, nil
}
