package probe

import (
	"fmt"
	"strings"
)

// ParseHeaders turns repeated "Header:Value" flags into a map, splitting on the first colon.
// No flags give a nil map.
func ParseHeaders(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(values))
	for _, value := range values {
		name, val, found := strings.Cut(value, ":")
		if !found {
			return nil, fmt.Errorf("invalid header %q, expected Header:Value", value)
		}
		name = strings.TrimSpace(name)
		if len(name) == 0 {
			return nil, fmt.Errorf("invalid header %q, name is empty", value)
		}
		headers[name] = val
	}
	return headers, nil
}
