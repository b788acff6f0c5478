package sequence

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPadWidth is the zero-padding applied when a counter carries none.
	DefaultPadWidth = 5
	// MinPadWidth and MaxPadWidth bound configurable padding.
	MinPadWidth = 2
	MaxPadWidth = 12
)

// ClampPadWidth forces width into the supported range, substituting the
// default for the zero value.
func ClampPadWidth(width int) int {
	if width == 0 {
		return DefaultPadWidth
	}
	if width < MinPadWidth {
		return MinPadWidth
	}
	if width > MaxPadWidth {
		return MaxPadWidth
	}
	return width
}

// Format renders a voucher number. The contract is bit-exact for existing
// data: uppercase prefix, a dash, then the counter zero-padded to width.
func Format(prefix string, width int, value int64) string {
	return fmt.Sprintf("%s-%0*d", strings.ToUpper(prefix), ClampPadWidth(width), value)
}

// ParseNumber splits a formatted voucher number into its prefix and counter
// value. The counter portion is everything after the last dash, so prefixes
// containing dashes survive the round trip.
func ParseNumber(number string) (prefix string, value int64, err error) {
	idx := strings.LastIndex(number, "-")
	if idx <= 0 || idx == len(number)-1 {
		return "", 0, fmt.Errorf("sequence: malformed number %q", number)
	}
	value, err = strconv.ParseInt(number[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("sequence: malformed number %q: %w", number, err)
	}
	return number[:idx], value, nil
}
