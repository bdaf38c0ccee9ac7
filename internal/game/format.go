package game

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Chat text uses the client's inline color markup: "|c0" followed by six hex
// digits. Nested or doubled codes confuse the client renderer, so outbound
// chat collapses runs of consecutive codes down to the last one.

var multiColorRe = regexp.MustCompile(`(\|c[0-9A-Fa-f]{7}(\s*))*(\|c[0-9A-Fa-f]{7})`)

// Color returns the markup prefix for a six-digit hex color.
func Color(c string) string {
	return "|c0" + c
}

// SystemPrepend prefixes server-generated chat lines.
var SystemPrepend = Color("BBBBFF") + "System:" + Color("FFFFFF") + " "

const (
	OwnerColor  = "BBFFBB"
	PlayerColor = "AAFFFF"
	OpColor     = "FFBBBB"
)

// RemoveMultiColor collapses any run of consecutive color codes to the last
// code in the run.
func RemoveMultiColor(s string) string {
	return multiColorRe.ReplaceAllString(s, "${2}${3}")
}

// StringToColor derives a stable six-digit hex color from a string.
func StringToColor(s string) string {
	var hash int32
	for _, r := range s {
		hash = int32(r) + hash*31
	}

	var b strings.Builder
	for i := 0; i < 3; i++ {
		value := (hash >> (i * 8)) & 0xff
		fmt.Fprintf(&b, "%02x", value)
	}
	return b.String()
}

// Colorize wraps s in color markup, deriving the color from s itself when
// none is given.
func Colorize(s string, color ...string) string {
	c := StringToColor(s)
	if len(color) > 0 {
		c = color[0]
	}
	return Color(c) + s + Color("FFFFFF")
}

// FormatRate renders a x1000 fixed-point rate as a multiplier suffix, e.g.
// 1500 -> "1.5x".
func FormatRate(rate int) string {
	v := strconv.FormatFloat(float64(rate)/1000, 'f', 2, 64)
	v = strings.TrimRight(v, "0")
	v = strings.TrimSuffix(v, ".")
	return v + "x"
}
