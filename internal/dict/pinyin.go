package dict

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Tone is a Mandarin lexical tone, 1 through 5 where 5 is neutral.
type Tone int

const (
	ToneFirst   Tone = 1
	ToneSecond  Tone = 2
	ToneThird   Tone = 3
	ToneFourth  Tone = 4
	ToneNeutral Tone = 5
)

// Pinyin is one toned syllable of a definition's pronunciation. Color is
// the conventional display color for the tone, precomputed so the
// presentation layer renders payloads verbatim.
type Pinyin struct {
	Tone     Tone   `json:"tone"`
	Syllable string `json:"syllable"`
	Color    string `json:"color"`
}

var toneColors = map[Tone]string{
	ToneFirst:   colorful.Color{R: 227.0 / 255.0, G: 0, B: 0}.Hex(),
	ToneSecond:  colorful.Color{R: 2.0 / 255.0, G: 179.0 / 255.0, B: 28.0 / 255.0}.Hex(),
	ToneThird:   colorful.Color{R: 21.0 / 255.0, G: 16.0 / 255.0, B: 240.0 / 255.0}.Hex(),
	ToneFourth:  colorful.Color{R: 137.0 / 255.0, G: 0, B: 191.0 / 255.0}.Hex(),
	ToneNeutral: colorful.Color{R: 119.0 / 255.0, G: 119.0 / 255.0, B: 119.0 / 255.0}.Hex(),
}

// ToneColor returns the display color hex for a tone.
func ToneColor(t Tone) string {
	if c, ok := toneColors[t]; ok {
		return c
	}
	return toneColors[ToneNeutral]
}

// ParsePinyin converts a numbered pinyin string ("zao3 shang5 hao3")
// into toned syllables with diacritics applied. Syllables without a tone
// number are treated as neutral.
func ParsePinyin(s string) []Pinyin {
	fields := strings.Fields(strings.TrimSpace(s))
	out := make([]Pinyin, 0, len(fields))
	for _, field := range fields {
		tone := ToneNeutral
		syllable := strings.ToLower(field)
		if n := len(field); n > 0 && field[n-1] >= '1' && field[n-1] <= '5' {
			tone = Tone(field[n-1] - '0')
			syllable = normalizeSyllable(syllable[:n-1])
			syllable = applyTone(syllable, tone)
		}
		out = append(out, Pinyin{
			Tone:     tone,
			Syllable: syllable,
			Color:    ToneColor(tone),
		})
	}
	return out
}

// normalizeSyllable maps CC-CEDICT's umlaut spellings to ü.
func normalizeSyllable(s string) string {
	s = strings.Replace(s, "u:", "ü", 1)
	s = strings.Replace(s, "v", "ü", 1)
	return s
}

var toneMarks = map[Tone]map[rune]rune{
	ToneFirst:  {'a': 'ā', 'e': 'ē', 'i': 'ī', 'o': 'ō', 'u': 'ū', 'ü': 'ǖ'},
	ToneSecond: {'a': 'á', 'e': 'é', 'i': 'í', 'o': 'ó', 'u': 'ú', 'ü': 'ǘ', 'm': 'ḿ'},
	ToneThird:  {'a': 'ǎ', 'e': 'ě', 'i': 'ǐ', 'o': 'ǒ', 'u': 'ǔ', 'ü': 'ǚ'},
	ToneFourth: {'a': 'à', 'e': 'è', 'i': 'ì', 'o': 'ò', 'u': 'ù', 'ü': 'ǜ'},
}

// applyTone places the tone diacritic on the tonal letter: the sole
// vowel, a preferential vowel (a/e/o), the second of multiple vowels, or
// the first letter of a vowelless syllable.
func applyTone(syllable string, tone Tone) string {
	marks, ok := toneMarks[tone]
	if !ok {
		return syllable
	}

	runes := []rune(syllable)
	vowels := make([]int, 0, 3)
	for i, r := range runes {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'ü':
			vowels = append(vowels, i)
		}
	}

	target := 0
	switch len(vowels) {
	case 0:
		if len(runes) == 0 {
			return syllable
		}
		target = 0
	case 1:
		target = vowels[0]
	default:
		// Preferential vowel first; otherwise the second vowel carries it.
		target = vowels[1]
		for _, idx := range vowels {
			if r := runes[idx]; r == 'a' || r == 'e' || r == 'o' {
				target = idx
				break
			}
		}
	}

	if marked, ok := marks[runes[target]]; ok {
		runes[target] = marked
	}
	return string(runes)
}
