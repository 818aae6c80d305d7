package style

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// Color is one of the 16 named terminal colors or a 24-bit RGB color.
// The zero value is Black.
type Color struct {
	rgb     bool
	basic   uint8
	r, g, b uint8
}

// Named colors, in ANSI order.
var (
	Black         = Color{basic: 0}
	Red           = Color{basic: 1}
	Green         = Color{basic: 2}
	Yellow        = Color{basic: 3}
	Blue          = Color{basic: 4}
	Magenta       = Color{basic: 5}
	Cyan          = Color{basic: 6}
	White         = Color{basic: 7}
	BrightBlack   = Color{basic: 8}
	BrightRed     = Color{basic: 9}
	BrightGreen   = Color{basic: 10}
	BrightYellow  = Color{basic: 11}
	BrightBlue    = Color{basic: 12}
	BrightMagenta = Color{basic: 13}
	BrightCyan    = Color{basic: 14}
	BrightWhite   = Color{basic: 15}
)

var colorNames = [16]string{
	"Black", "Red", "Green", "Yellow", "Blue", "Magenta", "Cyan", "White",
	"BrightBlack", "BrightRed", "BrightGreen", "BrightYellow",
	"BrightBlue", "BrightMagenta", "BrightCyan", "BrightWhite",
}

// RGB returns a true color.
func RGB(r, g, b uint8) Color {
	return Color{rgb: true, r: r, g: g, b: b}
}

// ANSI converts c for use with ansi.Style.
func (c Color) ANSI() ansi.Color {
	if c.rgb {
		return color.RGBA{R: c.r, G: c.g, B: c.b, A: 0xff}
	}
	return ansi.BasicColor(c.basic)
}

// String returns the color's name, or its #rrggbb form for true colors.
func (c Color) String() string {
	if c.rgb {
		return colorful.Color{
			R: float64(c.r) / 255,
			G: float64(c.g) / 255,
			B: float64(c.b) / 255,
		}.Hex()
	}
	return colorNames[c.basic]
}

// ParseColor accepts a color name in CamelCase, snake_case or lowercase
// ("BrightBlack", "bright_black", "brightblack") or a hex triplet ("#ff8700").
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex, err := colorful.Hex(s)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		r, g, b := hex.RGB255()
		return RGB(r, g, b), nil
	}
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for i, name := range colorNames {
		if strings.ToLower(name) == key {
			return Color{basic: uint8(i)}, nil
		}
	}
	return Color{}, fmt.Errorf("invalid color %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
