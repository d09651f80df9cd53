package identity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Palette — гармоничная триада цветов в hex (#RRGGBB).
type Palette struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// Пресеты насыщенности/светлоты. Secondary и accent намеренно различаются,
// чтобы триада читалась даже при близких оттенках.
const (
	primarySaturation   = 0.70
	primaryLightness    = 0.45
	secondarySaturation = 0.60
	secondaryLightness  = 0.55
	accentSaturation    = 0.75
	accentLightness     = 0.50
)

// paletteFromHue строит триаду от базового оттенка: secondary на hue+30°,
// accent на hue+180° (комплементарный). Детерминирована по hue.
func paletteFromHue(hue float64) Palette {
	return Palette{
		Primary:   hslToHex(hue, primarySaturation, primaryLightness),
		Secondary: hslToHex(math.Mod(hue+30, 360), secondarySaturation, secondaryLightness),
		Accent:    hslToHex(math.Mod(hue+180, 360), accentSaturation, accentLightness),
	}
}

// PaletteWithLockedPrimary сохраняет выбранный основной цвет и достраивает
// secondary/accent от его оттенка. ok == false при невалидном hex.
func PaletteWithLockedPrimary(hex string) (Palette, bool) {
	h, _, _, ok := hexToHSL(hex)
	if !ok {
		return Palette{}, false
	}
	p := paletteFromHue(h)
	p.Primary = normalizeHex(hex)
	return p, true
}

// ValidHex проверяет, что строка — 6-значный hex-цвет.
func ValidHex(hex string) bool {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 32)
	return err == nil
}

func normalizeHex(hex string) string {
	return "#" + strings.ToUpper(strings.TrimPrefix(hex, "#"))
}

func hexToHSL(hex string) (h, s, l float64, ok bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}

	r := float64(v>>16&0xFF) / 255
	g := float64(v>>8&0xFF) / 255
	b := float64(v&0xFF) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2

	if max == min {
		return 0, 0, l, true // ахроматический
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60

	return h, s, l, true
}

func hslToHex(h, s, l float64) string {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	toByte := func(v float64) int {
		return int(math.Round((v + m) * 255))
	}
	return fmt.Sprintf("#%02X%02X%02X", toByte(r), toByte(g), toByte(b))
}
