package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// UnmarshalStrict decodes data into v and fails if any field that v would
// encode is missing from data. Extra fields are ignored.
func UnmarshalStrict(data []byte, v interface{}) error {
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return err
	}

	// marshalling v yields the full key set of its type
	shape, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var expected map[string]json.RawMessage
	if err := json.Unmarshal(shape, &expected); err != nil {
		return err
	}

	var missing []string
	for key := range expected {
		if _, ok := present[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing field(s): %v", missing)
	}
	return nil
}
