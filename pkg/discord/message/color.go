package message

import (
	"fmt"
	"strconv"
	"strings"
)

// ColorToDecimal converts a hex color string (3 or 6 hex digits, with or
// without a leading #) to its decimal wire value.
func ColorToDecimal(hex string) (int, error) {
	raw := strings.TrimPrefix(hex, "#")
	switch len(raw) {
	case 3:
		var b strings.Builder
		for _, c := range raw {
			b.WriteRune(c)
			b.WriteRune(c)
		}
		raw = b.String()
	case 6:
	default:
		return 0, fmt.Errorf("invalid hex color %q: want 3 or 6 hex digits", hex)
	}

	v, err := strconv.ParseInt(raw, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return int(v), nil
}

// ColorFromDecimal converts a decimal wire color back to its 6-digit hex
// representation.
func ColorFromDecimal(v int) string {
	return fmt.Sprintf("#%06X", v&0xFFFFFF)
}
