// Package identity генерирует предложения айдентики команды: имена, палитры,
// ключевые слова маскота. Чистые функции без I/O; отсутствие результата —
// это пустое значение, а не ошибка.
package identity

import (
	"math"
	"math/rand"
	"strings"
)

type Suggestion struct {
	Name      string  `json:"name"`
	Palette   Palette `json:"palette"`
	Mascot    string  `json:"mascot,omitempty"`
	LogoStyle string  `json:"logo_style"`
	FontKey   string  `json:"font_key"`
}

// Options управляет закрепленными якорями: заданное поле сохраняется,
// остальные генерируются.
type Options struct {
	// Seed включает детерминированную генерацию (для тестов).
	Seed *int64
	// LockedPrimary — выбранный основной цвет; палитра достраивается от него.
	LockedPrimary string
	// LockedSuffix — выбранное второе слово имени (например, "Foxes").
	LockedSuffix string
}

var (
	adjectives = []string{
		"Blazing", "Iron", "Rapid", "Silent", "Golden", "Savage",
		"Roaring", "Frozen", "Electric", "Mighty", "Shadow", "Crimson",
	}
	animals = []string{
		"Foxes", "Wolves", "Hawks", "Panthers", "Bears", "Stallions",
		"Cobras", "Raptors", "Bulls", "Sharks", "Lynxes", "Falcons",
	}
	colorWords = []string{
		"Scarlet", "Cobalt", "Emerald", "Onyx", "Amber", "Ivory",
		"Violet", "Copper", "Jade", "Slate",
	}
	mythicals = []string{
		"Dragons", "Phoenixes", "Griffins", "Titans", "Krakens",
		"Minotaurs", "Hydras", "Chimeras", "Cyclones", "Valkyries",
	}
	intensities = []string{
		"Thunder", "Storm", "Inferno", "Avalanche", "Quake",
		"Vortex", "Blitz", "Surge", "Fury", "Rampage",
	}
	objects = []string{
		"Hammers", "Arrows", "Blades", "Shields", "Anchors",
		"Rockets", "Engines", "Pistons", "Comets", "Spears",
	}

	logoStyles = []string{"shield", "circle", "wordmark", "mascot", "retro", "modern"}
	fontKeys   = []string{"athletic", "college", "serif", "script", "futuristic"}
)

// rng — источник псевдослучайных чисел в [0,1). Сидированный вариант
// использует синусный хеш, чтобы последовательность была воспроизводимой
// при одном и том же seed.
type rng struct {
	seed   float64
	seeded bool
}

func newRNG(seed *int64) *rng {
	if seed == nil {
		return &rng{}
	}
	return &rng{seed: float64(*seed), seeded: true}
}

func (r *rng) next() float64 {
	if !r.seeded {
		return rand.Float64()
	}
	r.seed++
	x := math.Sin(r.seed) * 10000
	return x - math.Floor(x)
}

func pick(r *rng, words []string) string {
	i := int(r.next() * float64(len(words)))
	if i >= len(words) {
		i = len(words) - 1
	}
	return words[i]
}

// Generate производит предложение айдентики, сохраняя закрепленные якоря.
func Generate(opts Options) Suggestion {
	r := newRNG(opts.Seed)

	name := generateName(r, opts.LockedSuffix)

	var palette Palette
	if opts.LockedPrimary != "" {
		if p, ok := PaletteWithLockedPrimary(opts.LockedPrimary); ok {
			palette = p
		} else {
			palette = paletteFromHue(r.next() * 360)
		}
	} else {
		palette = paletteFromHue(r.next() * 360)
	}

	return Suggestion{
		Name:      name,
		Palette:   palette,
		Mascot:    InferMascot(name),
		LogoStyle: pick(r, logoStyles),
		FontKey:   pick(r, fontKeys),
	}
}

// generateName выбирает один из трех шаблонов равновероятно и склеивает
// два слова из словарей. При закрепленном суффиксе варьируется только префикс.
func generateName(r *rng, lockedSuffix string) string {
	switch int(r.next() * 3) {
	case 0:
		return compose(pick(r, adjectives), pick(r, animals), lockedSuffix)
	case 1:
		return compose(pick(r, colorWords), pick(r, mythicals), lockedSuffix)
	default:
		return compose(pick(r, intensities), pick(r, objects), lockedSuffix)
	}
}

func compose(prefix, suffix, locked string) string {
	if locked != "" {
		suffix = locked
	}
	return prefix + " " + suffix
}

// InferMascot ищет в имени слово из словарей животных/существ (с отрезанным
// множественным "s"). Эвристика best-effort: для произвольного имени может
// ничего не найти и вернуть пустую строку.
func InferMascot(name string) string {
	lower := strings.ToLower(name)
	for _, vocab := range [][]string{animals, mythicals} {
		for _, word := range vocab {
			singular := strings.TrimSuffix(strings.ToLower(word), "s")
			if strings.Contains(lower, singular) {
				return singular
			}
		}
	}
	return ""
}
