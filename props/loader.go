package props

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mobile-next/gestures/utils"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a property override file and applies it to reg. The format
// is picked from the file extension. Names that are not registered are
// skipped and returned.
func LoadFile(reg *Registry, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read property file: %w", err)
	}

	values, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return Apply(reg, values)
}

// Decode parses property overrides in the format named by ext.
func Decode(ext string, data []byte) (map[string]interface{}, error) {
	values := make(map[string]interface{})

	switch strings.ToLower(ext) {
	case ".ini", ".conf":
		cfg, err := ini.Load(data)
		if err != nil {
			return nil, fmt.Errorf("decode INI: %w", err)
		}
		for _, key := range cfg.Section("").Keys() {
			values[key.Name()] = key.String()
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &values); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&values); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported property file format: %q", ext)
	}

	return values, nil
}

// Apply sets every known property in values. Values that fail to coerce are
// collected into the returned error; the rest are still applied.
func Apply(reg *Registry, values map[string]interface{}) ([]string, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var unknown []string
	var errs []error
	for _, name := range names {
		p, ok := reg.Lookup(name)
		if !ok {
			utils.Verbose("ignoring unknown property %q", name)
			unknown = append(unknown, name)
			continue
		}
		if err := p.SetValue(values[name]); err != nil {
			errs = append(errs, err)
		}
	}

	return unknown, errors.Join(errs...)
}
