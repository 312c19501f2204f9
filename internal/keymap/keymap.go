// Package keymap maps characters to the hand and finger that type them on QWERTY.
package keymap

import (
	"strings"
	"unicode/utf8"

	"github.com/verte-zerg/keycoach/internal/model"
)

type placement struct {
	hand   model.Hand
	finger model.Finger
}

var qwerty = map[rune]placement{
	'q': {model.HandLeft, model.FingerPinky},
	'a': {model.HandLeft, model.FingerRing},
	'z': {model.HandLeft, model.FingerMiddle},
	'w': {model.HandLeft, model.FingerRing},
	's': {model.HandLeft, model.FingerMiddle},
	'x': {model.HandLeft, model.FingerIndex},
	'e': {model.HandLeft, model.FingerMiddle},
	'd': {model.HandLeft, model.FingerIndex},
	'c': {model.HandLeft, model.FingerIndex},
	'r': {model.HandLeft, model.FingerIndex},
	'f': {model.HandLeft, model.FingerIndex},
	'v': {model.HandLeft, model.FingerIndex},
	't': {model.HandLeft, model.FingerIndex},
	'g': {model.HandLeft, model.FingerIndex},
	'b': {model.HandLeft, model.FingerIndex},

	'y': {model.HandRight, model.FingerIndex},
	'h': {model.HandRight, model.FingerIndex},
	'n': {model.HandRight, model.FingerIndex},
	'u': {model.HandRight, model.FingerIndex},
	'j': {model.HandRight, model.FingerIndex},
	'm': {model.HandRight, model.FingerIndex},
	'i': {model.HandRight, model.FingerMiddle},
	'k': {model.HandRight, model.FingerMiddle},
	',': {model.HandRight, model.FingerMiddle},
	'o': {model.HandRight, model.FingerRing},
	'l': {model.HandRight, model.FingerRing},
	'.': {model.HandRight, model.FingerRing},
	'p': {model.HandRight, model.FingerPinky},
	';': {model.HandRight, model.FingerPinky},
	'/': {model.HandRight, model.FingerPinky},

	' ': {model.HandBoth, model.FingerThumb},
}

// Classify returns the hand and finger for the expected character.
// Anything that is not a single mapped character yields unknown/unknown.
func Classify(expected string) (model.Hand, model.Finger) {
	if utf8.RuneCountInString(expected) != 1 {
		return model.HandUnknown, model.FingerUnknown
	}
	r, _ := utf8.DecodeRuneInString(strings.ToLower(expected))
	p, ok := qwerty[r]
	if !ok {
		return model.HandUnknown, model.FingerUnknown
	}
	return p.hand, p.finger
}
