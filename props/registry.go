// Package props holds the named, typed tunables that interpreter stages read
// on every frame.
package props

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
)

// Type is the value type of a property.
type Type int

const (
	TypeBool Type = iota
	TypeInt
	TypeDouble
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps a type name back to its Type.
func ParseType(name string) (Type, error) {
	for _, t := range []Type{TypeBool, TypeInt, TypeDouble, TypeString} {
		if t.String() == name {
			return t, nil
		}
	}
	return TypeBool, fmt.Errorf("unknown property type: %s", name)
}

// Property is the type-erased view of a registered property.
type Property interface {
	Name() string
	Type() Type
	Value() interface{}
	SetValue(v interface{}) error
	SetFromString(s string) error
}

// Listener is called after a property value was set.
type Listener func(p Property)

// Registry owns the properties of one pipeline. A nil *Registry is valid:
// properties created through it are simply not registered anywhere.
type Registry struct {
	mu        sync.RWMutex
	props     map[string]Property
	listeners []Listener
}

func NewRegistry() *Registry {
	return &Registry{props: make(map[string]Property)}
}

// Lookup returns the property with the given name.
func (r *Registry) Lookup(name string) (Property, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.props[name]
	return p, ok
}

// All returns every registered property, sorted by name.
func (r *Registry) All() []Property {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Property, 0, len(r.props))
	for _, p := range r.props {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Snapshot returns name -> current value for every registered property.
func (r *Registry) Snapshot() map[string]interface{} {
	out := make(map[string]interface{})
	for _, p := range r.All() {
		out[p.Name()] = p.Value()
	}
	return out
}

// Set assigns a value to a registered property, coercing it to the
// property's type.
func (r *Registry) Set(name string, value interface{}) error {
	p, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown property: %s", name)
	}
	return p.SetValue(value)
}

// OnChange registers a listener for every subsequent value change.
func (r *Registry) OnChange(l Listener) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

func (r *Registry) notify(p Property) {
	if r == nil {
		return
	}
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, l := range listeners {
		l(p)
	}
}

// register adds p unless a property of the same name and type exists, in
// which case the existing one is returned and shared.
func (r *Registry) register(p Property) Property {
	if r == nil {
		return p
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.props[p.Name()]; ok && existing.Type() == p.Type() {
		return existing
	}
	r.props[p.Name()] = p
	return p
}

type BoolProperty struct {
	name string
	val  bool
	reg  *Registry
}

// Bool creates (or returns the already registered) bool property.
func (r *Registry) Bool(name string, def bool) *BoolProperty {
	return r.register(&BoolProperty{name: name, val: def, reg: r}).(*BoolProperty)
}

func (p *BoolProperty) Name() string       { return p.name }
func (p *BoolProperty) Type() Type         { return TypeBool }
func (p *BoolProperty) Value() interface{} { return p.val }
func (p *BoolProperty) Val() bool          { return p.val }

func (p *BoolProperty) Set(v bool) {
	p.val = v
	p.reg.notify(p)
}

func (p *BoolProperty) SetValue(v interface{}) error {
	b, err := toBool(v)
	if err != nil {
		return fmt.Errorf("property %q: %w", p.name, err)
	}
	p.Set(b)
	return nil
}

func (p *BoolProperty) SetFromString(s string) error { return p.SetValue(s) }

type IntProperty struct {
	name string
	val  int
	reg  *Registry
}

// Int creates (or returns the already registered) int property.
func (r *Registry) Int(name string, def int) *IntProperty {
	return r.register(&IntProperty{name: name, val: def, reg: r}).(*IntProperty)
}

func (p *IntProperty) Name() string       { return p.name }
func (p *IntProperty) Type() Type         { return TypeInt }
func (p *IntProperty) Value() interface{} { return p.val }
func (p *IntProperty) Val() int           { return p.val }

func (p *IntProperty) Set(v int) {
	p.val = v
	p.reg.notify(p)
}

func (p *IntProperty) SetValue(v interface{}) error {
	i, err := toInt(v)
	if err != nil {
		return fmt.Errorf("property %q: %w", p.name, err)
	}
	p.Set(i)
	return nil
}

func (p *IntProperty) SetFromString(s string) error { return p.SetValue(s) }

type DoubleProperty struct {
	name string
	val  float64
	reg  *Registry
}

// Double creates (or returns the already registered) double property.
func (r *Registry) Double(name string, def float64) *DoubleProperty {
	return r.register(&DoubleProperty{name: name, val: def, reg: r}).(*DoubleProperty)
}

func (p *DoubleProperty) Name() string       { return p.name }
func (p *DoubleProperty) Type() Type         { return TypeDouble }
func (p *DoubleProperty) Value() interface{} { return p.val }
func (p *DoubleProperty) Val() float64       { return p.val }

func (p *DoubleProperty) Set(v float64) {
	p.val = v
	p.reg.notify(p)
}

func (p *DoubleProperty) SetValue(v interface{}) error {
	f, err := toDouble(v)
	if err != nil {
		return fmt.Errorf("property %q: %w", p.name, err)
	}
	p.Set(f)
	return nil
}

func (p *DoubleProperty) SetFromString(s string) error { return p.SetValue(s) }

type StringProperty struct {
	name string
	val  string
	reg  *Registry
}

// String creates (or returns the already registered) string property.
func (r *Registry) String(name string, def string) *StringProperty {
	return r.register(&StringProperty{name: name, val: def, reg: r}).(*StringProperty)
}

func (p *StringProperty) Name() string       { return p.name }
func (p *StringProperty) Type() Type         { return TypeString }
func (p *StringProperty) Value() interface{} { return p.val }
func (p *StringProperty) Val() string        { return p.val }

func (p *StringProperty) Set(v string) {
	p.val = v
	p.reg.notify(p)
}

func (p *StringProperty) SetValue(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("property %q: expected string, got %T", p.name, v)
	}
	p.Set(s)
	return nil
}

func (p *StringProperty) SetFromString(s string) error { return p.SetValue(s) }

func toBool(v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(x)
	case int:
		return x != 0, nil
	case int64:
		return x != 0, nil
	}
	return false, fmt.Errorf("expected bool, got %T", v)
}

func toInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("expected int, got %v", x)
		}
		return int(x), nil
	case json.Number:
		i, err := x.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(x)
	}
	return 0, fmt.Errorf("expected int, got %T", v)
}

func toDouble(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return 0, fmt.Errorf("expected double, got %T", v)
}
