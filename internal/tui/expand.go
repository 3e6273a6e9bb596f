package tui

import (
	"fmt"
	"strconv"
	"strings"

	"tabletodo/internal/model"
)

// ExpandFields turns flat "<todoID>.<field>" form values into the nested
// id-to-partial shape the store's bulk update expects.
func ExpandFields(fields map[string]string) (map[string]model.Partial, error) {
	out := make(map[string]model.Partial, len(fields))
	for name, value := range fields {
		id, field, ok := strings.Cut(name, ".")
		if !ok || id == "" {
			return nil, fmt.Errorf("malformed field name %q", name)
		}
		p := out[id]
		switch field {
		case "label":
			p.Label = model.String(value)
		case "isDone":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			p.IsDone = model.Bool(b)
		default:
			return nil, fmt.Errorf("unknown field %q", name)
		}
		out[id] = p
	}
	return out, nil
}
