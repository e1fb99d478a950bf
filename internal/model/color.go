package model

// Color is the Tempo signal for one calendar day.
type Color int

const (
	Unknown Color = iota
	Blue
	White
	Red
)

var colorNames = map[Color]string{
	Unknown: "UNKNOWN",
	Blue:    "BLUE",
	White:   "WHITE",
	Red:     "RED",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return colorNames[Unknown]
}

// ParseColor maps a canonical name back to a Color. Unrecognized names yield Unknown.
func ParseColor(name string) Color {
	for c, n := range colorNames {
		if n == name {
			return c
		}
	}
	return Unknown
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText never fails: a cache written by an older build must still load.
func (c *Color) UnmarshalText(text []byte) error {
	*c = ParseColor(string(text))
	return nil
}
