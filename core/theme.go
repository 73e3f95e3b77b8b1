package core

import (
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// NormalizeTheme returns a new map where every key ending in "color"
// (case-insensitive) holds the normalized color value. The input is not
// modified and a nil theme yields an empty map.
func NormalizeTheme(theme Theme, normalizer ColorNormalizer) Theme {
	out := make(Theme, len(theme))
	if normalizer == nil {
		normalizer = ARGBColorNormalizer{}
	}
	for key, value := range theme {
		if strings.HasSuffix(strings.ToLower(key), "color") {
			out[key] = normalizer.Normalize(value)
			continue
		}
		out[key] = value
	}
	return out
}

// ARGBColorNormalizer converts CSS-style hex strings into the packed
// 0xAARRGGBB integer the native SDK expects. Values it cannot parse are
// returned unchanged.
type ARGBColorNormalizer struct{}

func (ARGBColorNormalizer) Normalize(value any) any {
	raw, ok := value.(string)
	if !ok {
		return value
	}
	packed, ok := parseARGB(raw)
	if !ok {
		return value
	}
	return packed
}

func parseARGB(raw string) (uint32, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "transparent" {
		return 0, true
	}
	alpha := uint32(0xff)
	switch len(s) {
	case 4, 7:
	case 9:
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return 0, false
		}
		alpha = uint32(a)
		s = s[:7]
	default:
		return 0, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, false
	}
	r, g, b := c.RGB255()
	return alpha<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b), true
}
