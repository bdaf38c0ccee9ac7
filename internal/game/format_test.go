package game

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveMultiColor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "no markup here", "no markup here"},
		{"single code untouched", "|c0FFFFFFhello", "|c0FFFFFFhello"},
		{"double collapses to last", "|c0AAAAAA|c0BBBBBBhi", "|c0BBBBBBhi"},
		{"triple collapses to last", "|c0111111|c0222222|c0333333x", "|c0333333x"},
		{"space between codes kept", "|c0AAAAAA |c0BBBBBBhi", " |c0BBBBBBhi"},
		{"codes split by text untouched", "|c0AAAAAAone|c0BBBBBBtwo", "|c0AAAAAAone|c0BBBBBBtwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveMultiColor(tt.input))
		})
	}
}

func TestStringToColor(t *testing.T) {
	c := StringToColor("alice")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{6}$`), c)
	assert.Equal(t, c, StringToColor("alice"), "same input must give the same color")

	// Single rune: the hash is the code point itself.
	assert.Equal(t, "610000", StringToColor("a"))
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "|c0ABCDEFfoo|c0FFFFFF", Colorize("foo", "ABCDEF"))

	derived := Colorize("foo")
	assert.Equal(t, "|c0"+StringToColor("foo")+"foo|c0FFFFFF", derived)
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		rate int
		want string
	}{
		{1000, "1x"},
		{1500, "1.5x"},
		{1050, "1.05x"},
		{700, "0.7x"},
		{2000, "2x"},
		{0, "0x"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRate(tt.rate), "rate %d", tt.rate)
	}
}
