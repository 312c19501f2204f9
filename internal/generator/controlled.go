package generator

import (
	"math/rand"
	"strings"

	"github.com/verte-zerg/keycoach/internal/model"
)

const (
	focusWordChance = 0.4
	focusWordMaxLen = 5
)

// controlled samples short common words, mixing in words that carry weak keys.
type controlled struct {
	easy []string
}

func (c controlled) Generate(rnd *rand.Rand, words int, focus []model.FocusArea, _ []model.MasteredItem) string {
	var focusWords []string
	for _, key := range model.FocusKeys(focus) {
		for _, w := range c.easy {
			if key != "" && strings.Contains(w, key) && len(w) <= focusWordMaxLen {
				focusWords = append(focusWords, w)
			}
		}
	}

	out := make([]string, 0, words)
	for i := 0; i < words; i++ {
		if len(focusWords) > 0 && rnd.Float64() < focusWordChance {
			out = append(out, pick(rnd, focusWords))
			continue
		}
		out = append(out, pick(rnd, c.easy))
	}
	return strings.Join(out, " ")
}
