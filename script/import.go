package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadPayload marks an import payload that could not be parsed.
var ErrBadPayload = errors.New("invalid import payload")

// DecodeImport parses an import payload, which may be a single script object
// or an array of script objects.
func DecodeImport(data []byte) ([]Script, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrBadPayload)
	}
	if trimmed[0] == '[' {
		var list []Script
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return list, nil
	}
	var one Script
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return []Script{one}, nil
}
