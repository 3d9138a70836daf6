package services

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	darkText  = "#0F172A"
	lightText = "#FFFFFF"
)

// ParseHexColor accepts "#rgb", "#rrggbb" or the same without the hash.
func ParseHexColor(hex string) (colorful.Color, bool) {
	digits := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(digits) != 3 && len(digits) != 6 {
		return colorful.Color{}, false
	}
	for _, r := range digits {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return colorful.Color{}, false
		}
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// HexToRGB returns the 8-bit channels of hex.
func HexToRGB(hex string) (r, g, b uint8, ok bool) {
	c, ok := ParseHexColor(hex)
	if !ok {
		return 0, 0, 0, false
	}
	r, g, b = c.RGB255()
	return r, g, b, true
}

// RelativeLuminance is the WCAG 2.0 relative luminance of c.
func RelativeLuminance(c colorful.Color) float64 {
	channel := func(v float64) float64 {
		if v <= 0.03928 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return 0.2126*channel(c.R) + 0.7152*channel(c.G) + 0.0722*channel(c.B)
}

// ContrastingTextColor picks dark or white text for a background of hex.
// Unparsable colors get dark text.
func ContrastingTextColor(hex string) string {
	c, ok := ParseHexColor(hex)
	if !ok {
		return darkText
	}
	if RelativeLuminance(c) > 0.35 {
		return darkText
	}
	return lightText
}
