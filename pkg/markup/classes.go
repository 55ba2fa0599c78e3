package markup

import "strings"

// Classes joins non-empty class names with a single space.
// Empty strings are dropped, which lets callers pass conditional
// names without building the slice up front:
//
//	markup.Classes("swatch", selectedClass, "")
func Classes(names ...string) string {
	var buf strings.Builder

	for _, name := range names {
		if name == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(name)
	}

	return buf.String()
}
