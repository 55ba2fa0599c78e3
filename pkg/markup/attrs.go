package markup

import (
	"fmt"
	"sort"
	"strings"
)

// Attrs is an attribute mapping rendered into an element's opening tag.
//
// Serialization rules:
//   - keys are sorted for deterministic output
//   - keys prefixed with "_" are internal and never rendered
//   - nil values and empty strings are dropped
//   - true renders as a bare attribute name, false is dropped, except for
//     enumerated attributes (draggable, spellcheck, contenteditable and
//     aria-*) where both render as explicit "true"/"false" values
//   - a nested "data" mapping renders as individual data-* attributes
//   - everything else renders as key="escaped value"
type Attrs map[string]any

// String renders the attribute mapping. The result is either empty or
// begins with a space, so it can be concatenated directly after a tag name.
func (a Attrs) String() string {
	if len(a) == 0 {
		return ""
	}

	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, key := range keys {
		if strings.HasPrefix(key, "_") {
			continue
		}

		value := a[key]
		if value == nil {
			continue
		}

		if key == "data" {
			if wroteData := writeDataAttrs(&buf, value); wroteData {
				continue
			}
		}

		if boolValue, ok := value.(bool); ok {
			if isEnumeratedAttr(key) {
				fmt.Fprintf(&buf, ` %s="%s"`, key, attrToString(boolValue))
				continue
			}
			if boolValue {
				buf.WriteByte(' ')
				buf.WriteString(key)
			}
			continue
		}

		strValue := attrToString(value)
		if strValue == "" {
			continue
		}
		fmt.Fprintf(&buf, ` %s="%s"`, key, EscapeAttr(strValue))
	}

	return buf.String()
}

// writeDataAttrs expands a nested "data" mapping into data-* attributes.
// It reports false when the value is not a mapping, so the caller falls
// back to rendering a literal data attribute.
func writeDataAttrs(buf *strings.Builder, value any) bool {
	var entries map[string]any

	switch v := value.(type) {
	case map[string]any:
		entries = v
	case map[string]string:
		entries = make(map[string]any, len(v))
		for key, s := range v {
			entries[key] = s
		}
	case Attrs:
		entries = v
	default:
		return false
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if entries[key] == nil {
			continue
		}
		strValue := attrToString(entries[key])
		fmt.Fprintf(buf, ` data-%s="%s"`, key, EscapeAttr(strValue))
	}

	return true
}

// enumeratedAttrs take explicit "true"/"false" string values in HTML.
// Rendering them bare (or dropping false) would change their meaning.
var enumeratedAttrs = map[string]bool{
	"contenteditable": true,
	"draggable":       true,
	"spellcheck":      true,
}

// isEnumeratedAttr returns true for attributes whose boolean values must
// render as "true"/"false" strings.
func isEnumeratedAttr(name string) bool {
	return enumeratedAttrs[name] || strings.HasPrefix(name, "aria-")
}

// attrToString converts an attribute value to a string.
func attrToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
