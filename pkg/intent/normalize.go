// SPDX-License-Identifier: Apache-2.0

// Package intent routes free-text input to a capability family. It
// normalizes Arabic text, scores it against priority-ordered keyword
// sets, and maps the winning family to a capability.
package intent

import "strings"

// Arabic codepoints the normalizer classifies in one pass.
const (
	tatweel     = 0x0640 // kashida elongation
	alefMadda   = 0x0622
	alefHamzaAb = 0x0623
	alefHamzaBe = 0x0625
	alefBare    = 0x0627
	taaMarbuta  = 0x0629
	haa         = 0x0647
	alefMaksura = 0x0649
	yaa         = 0x064A
	superAlef   = 0x0670 // dagger alef, combining
)

func isTashkeel(r rune) bool {
	// Combining harakat and Quranic annotation marks.
	return (r >= 0x064B && r <= 0x065F) || r == superAlef ||
		(r >= 0x06D6 && r <= 0x06DC) || (r >= 0x06DF && r <= 0x06E4) ||
		r == 0x06E7 || r == 0x06E8 || (r >= 0x06EA && r <= 0x06ED)
}

func isZeroWidth(r rune) bool {
	return (r >= 0x200B && r <= 0x200F) || r == 0xFEFF || r == 0x061C
}

// Normalize performs a single pass over codepoints: tashkeel and
// zero-width marks are dropped, tatweel collapses, alef variants fold to
// bare alef, alef-maksura folds to yaa, taa-marbuta folds to haa, and
// ASCII letters lowercase. Other scripts pass through unchanged so
// mixed-language input normalizes per-token.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case isTashkeel(r), isZeroWidth(r), r == tatweel:
			// dropped
		case r == alefMadda, r == alefHamzaAb, r == alefHamzaBe:
			b.WriteRune(alefBare)
		case r == alefMaksura:
			b.WriteRune(yaa)
		case r == taaMarbuta:
			b.WriteRune(haa)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
