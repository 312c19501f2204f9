package generator

import (
	"math/rand"
	"strings"

	"github.com/verte-zerg/keycoach/internal/model"
)

const (
	vowels  = "aeiou"
	minPool = 4
)

var (
	homeRow         = []string{"a", "s", "d", "f", "j", "k", "l"}
	skeletons       = []string{"cvc", "cv", "vc", "cvcv", "vcc", "cvcc"}
	fillerVowels    = []string{"a", "e"}
	fillerConsonant = []string{"t", "n", "r"}
)

// foundational drills weak keys with pronounceable pseudo-words.
type foundational struct{}

func (foundational) Generate(rnd *rand.Rand, words int, focus []model.FocusArea, _ []model.MasteredItem) string {
	pool := newLetterPool()
	for _, key := range model.FocusKeys(focus) {
		pool.add(key)
	}
	if pool.empty() {
		pool.add(homeRow...)
	}
	if !pool.hasVowel() {
		pool.add(fillerVowels...)
	}
	if pool.size() < minPool {
		pool.add(fillerConsonant...)
	}

	vs, cs := pool.split()
	if len(vs) == 0 {
		vs = fillerVowels
	}
	if len(cs) == 0 {
		cs = fillerConsonant[:2]
	}

	out := make([]string, 0, words)
	for i := 0; i < words; i++ {
		var b strings.Builder
		for _, slot := range pick(rnd, skeletons) {
			if slot == 'c' {
				b.WriteString(pick(rnd, cs))
			} else {
				b.WriteString(pick(rnd, vs))
			}
		}
		out = append(out, b.String())
	}
	return strings.Join(out, " ")
}

// letterPool is an insertion-ordered set of lowercase letters.
type letterPool struct {
	order []string
	seen  map[string]bool
}

func newLetterPool() *letterPool {
	return &letterPool{seen: map[string]bool{}}
}

// add keeps single a-z letters; spaces and punctuation cannot form words.
func (p *letterPool) add(keys ...string) {
	for _, key := range keys {
		key = strings.ToLower(key)
		if len(key) != 1 || key[0] < 'a' || key[0] > 'z' || p.seen[key] {
			continue
		}
		p.seen[key] = true
		p.order = append(p.order, key)
	}
}

func (p *letterPool) empty() bool { return len(p.order) == 0 }
func (p *letterPool) size() int   { return len(p.order) }

func (p *letterPool) hasVowel() bool {
	for _, k := range p.order {
		if strings.Contains(vowels, k) {
			return true
		}
	}
	return false
}

func (p *letterPool) split() (vs, cs []string) {
	for _, k := range p.order {
		if strings.Contains(vowels, k) {
			vs = append(vs, k)
		} else {
			cs = append(cs, k)
		}
	}
	return vs, cs
}
