// Package segment encodes text for 4-digit 7-segment displays.
//
// Bit layout is the common one: bit 0 is segment a (top) clockwise to bit 5 (f),
// bit 6 is the middle segment g and bit 7 the decimal point.
package segment

import "strconv"

// Width is the number of digits on the display.
const Width = 4

// Limits of a signed 4-digit display.
const (
	MinNumber = -999
	MaxNumber = 9999
)

var font = map[rune]byte{
	' ': 0x00,
	'-': 0x40,
	'_': 0x08,
	'0': 0x3F,
	'1': 0x06,
	'2': 0x5B,
	'3': 0x4F,
	'4': 0x66,
	'5': 0x6D,
	'6': 0x7D,
	'7': 0x07,
	'8': 0x7F,
	'9': 0x6F,
	'A': 0x77,
	'b': 0x7C,
	'C': 0x39,
	'c': 0x58,
	'd': 0x5E,
	'E': 0x79,
	'F': 0x71,
	'G': 0x3D,
	'H': 0x76,
	'h': 0x74,
	'I': 0x06,
	'i': 0x10,
	'J': 0x1E,
	'L': 0x38,
	'N': 0x37,
	'n': 0x54,
	'O': 0x3F,
	'o': 0x5C,
	'P': 0x73,
	'r': 0x50,
	'S': 0x6D,
	't': 0x78,
	'U': 0x3E,
	'u': 0x1C,
	'y': 0x6E,
}

// Glyph returns the segments of r. Letters without a glyph in one case fall
// back to the other; unknown runes are blank.
func Glyph(r rune) byte {
	if g, ok := font[r]; ok {
		return g
	}
	switch {
	case r >= 'a' && r <= 'z':
		return font[r-'a'+'A']
	case r >= 'A' && r <= 'Z':
		return font[r-'A'+'a']
	}
	return 0
}

// Encode returns exactly Width segment bytes for text, padding with blanks on
// the right and dropping anything past Width.
func Encode(text string) []byte {
	out := make([]byte, Width)
	i := 0
	for _, r := range text {
		if i == Width {
			break
		}
		out[i] = Glyph(r)
		i++
	}
	return out
}

// Clamp limits n to what a signed 4-digit display can show.
func Clamp(n int) int {
	if n < MinNumber {
		return MinNumber
	}
	if n > MaxNumber {
		return MaxNumber
	}
	return n
}

// FormatNumber renders n, clamped, right-aligned in Width characters.
func FormatNumber(n int) string {
	s := strconv.Itoa(Clamp(n))
	for len(s) < Width {
		s = " " + s
	}
	return s
}
