package generator

import (
	"math/rand"
	"strings"

	"github.com/verte-zerg/keycoach/internal/wordlist"
)

const (
	consonants  = "bcdfghjklmnpqrstvwxyz"
	affixChance = 0.5
)

func wordWithBigram(rnd *rand.Rand, bigram string) string {
	bigram = strings.ToLower(bigram)
	if bigram == "" {
		return ""
	}
	var matches []string
	for _, bank := range [][]string{wordlist.Easy, wordlist.Medium, wordlist.Hard} {
		matches = append(matches, wordlist.Containing(bank, bigram)...)
	}
	if len(matches) > 0 {
		return pick(rnd, matches)
	}
	if len(bigram) != 2 {
		return ""
	}

	first, second := bigram[0:1], bigram[1:2]
	switch {
	case strings.Contains(consonants, first) && strings.Contains(vowels, second):
		return affix(rnd, consonants) + bigram + affix(rnd, vowels+"s")
	case strings.Contains(vowels, first) && strings.Contains(consonants, second):
		return affix(rnd, vowels) + bigram + affix(rnd, consonants+"s")
	default:
		return ""
	}
}

// affix returns one letter from letters half of the time, otherwise "".
func affix(rnd *rand.Rand, letters string) string {
	if rnd.Float64() >= affixChance {
		return ""
	}
	i := rnd.Intn(len(letters))
	return letters[i : i+1]
}
