package generator

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/verte-zerg/keycoach/internal/model"
	"github.com/verte-zerg/keycoach/internal/wordlist"
)

func seeded() *Generator {
	return NewWithRand(rand.New(rand.NewSource(7)))
}

func focusKeys(keys ...string) []model.FocusArea {
	return []model.FocusArea{{Kind: model.FocusHighErrorKeys, Items: keys, Priority: "high"}}
}

func inBank(word string, bank []string) bool {
	for _, w := range bank {
		if w == word {
			return true
		}
	}
	return false
}

func TestGenerateRejectsBadInput(t *testing.T) {
	g := seeded()
	if _, err := g.Generate(model.Tier("expert"), 10, nil, nil); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
	if _, err := g.Generate(model.TierControlled, 0, nil, nil); err == nil {
		t.Fatalf("expected error for zero words")
	}
}

func TestFoundationalUsesFocusPool(t *testing.T) {
	g := seeded()
	for i := 0; i < 20; i++ {
		text, err := g.Generate(model.TierFoundational, 15, focusKeys("q", "z"), nil)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		words := strings.Fields(text)
		if len(words) != 15 {
			t.Fatalf("expected 15 words, got %d", len(words))
		}
		for _, w := range words {
			if len(w) < 2 || len(w) > 4 {
				t.Fatalf("unexpected pseudo-word length %q", w)
			}
			for _, r := range w {
				if !strings.ContainsRune("qzae", r) {
					t.Fatalf("unexpected letter %q in %q", r, w)
				}
			}
		}
	}
}

func TestFoundationalDefaultsToHomeRow(t *testing.T) {
	text, err := seeded().Generate(model.TierFoundational, 30, nil, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, r := range strings.ReplaceAll(text, " ", "") {
		if !strings.ContainsRune("asdfjkl", r) {
			t.Fatalf("unexpected letter %q in %q", r, text)
		}
	}
}

func TestFoundationalPadsSmallPool(t *testing.T) {
	text, err := seeded().Generate(model.TierFoundational, 40, focusKeys("e", " ", ";"), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, r := range strings.ReplaceAll(text, " ", "") {
		if !strings.ContainsRune("etnr", r) {
			t.Fatalf("unexpected letter %q in %q", r, text)
		}
	}
}

func TestLetterPoolSplit(t *testing.T) {
	pool := newLetterPool()
	pool.add("A", "b", "a", "ab", "7", "u")
	vs, cs := pool.split()
	if strings.Join(vs, "") != "au" || strings.Join(cs, "") != "b" {
		t.Fatalf("unexpected split vowels=%v consonants=%v", vs, cs)
	}
	if !pool.hasVowel() || pool.size() != 3 {
		t.Fatalf("unexpected pool state %+v", pool)
	}
}

func TestControlledFallsBackWithoutFocusWords(t *testing.T) {
	g := seeded()
	text, err := g.Generate(model.TierControlled, 50, focusKeys("z"), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	words := strings.Fields(text)
	if len(words) != 50 {
		t.Fatalf("expected 50 words, got %d", len(words))
	}
	for _, w := range words {
		if !inBank(w, wordlist.Easy) {
			t.Fatalf("unexpected word %q", w)
		}
	}
}

func TestControlledFavoursFocusWords(t *testing.T) {
	g := seeded()
	text, err := g.Generate(model.TierControlled, 400, focusKeys("h"), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	withH := 0
	words := strings.Fields(text)
	for _, w := range words {
		if strings.Contains(w, "h") {
			withH++
		}
	}
	// "h" appears in 5 of 20 easy words, so plain sampling gives about 25%.
	if withH*100/len(words) < 40 {
		t.Fatalf("expected focus words to be favoured, got %d of %d", withH, len(words))
	}
}

func TestWithEasyWordsOverridesBank(t *testing.T) {
	g := seeded().WithEasyWords([]string{"zap", "zip"})
	text, err := g.Generate(model.TierControlled, 10, focusKeys("z"), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, w := range strings.Fields(text) {
		if w != "zap" && w != "zip" {
			t.Fatalf("unexpected word %q", w)
		}
	}
	if g.WithEasyWords(nil) != g {
		t.Fatalf("expected chaining to return the generator")
	}
}

func TestPerformanceGrades(t *testing.T) {
	g := seeded()
	cases := []struct {
		words int
		bank  []string
	}{
		{90, wordlist.Grandmaster},
		{20, wordlist.Hard},
	}
	for _, tc := range cases {
		text, err := g.Generate(model.TierPerformance, tc.words, nil, nil)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if strings.ContainsAny(text, "{}") {
			t.Fatalf("unfilled slot in %q", text)
		}
		words := strings.Fields(text)
		if len(words) < tc.words {
			t.Fatalf("expected at least %d words, got %d", tc.words, len(words))
		}
		if tc.words > grandmasterAbove {
			found := false
			for _, w := range words {
				if inBank(w, tc.bank) {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("expected grandmaster vocabulary in %q", text)
			}
		}
	}
}

func TestFillTemplateSharesSlotValues(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	out := fillTemplate(rnd, "{noun} and {noun}", wordlist.Hard)
	parts := strings.Split(out, " and ")
	if len(parts) != 2 || parts[0] != parts[1] {
		t.Fatalf("expected repeated slot to share a value, got %q", out)
	}
}

func TestInjectFocusRaisesKeyFrequency(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	before, after := 0, 0
	for i := 0; i < 300; i++ {
		words := strings.Fields(fillTemplate(rnd, pick(rnd, gradeHard.templates), gradeHard.vocab))
		before += countContaining(words, "w")
		after += countContaining(injectFocus(rnd, words, focusKeys("w")), "w")
	}
	if after <= before {
		t.Fatalf("expected more words with w after injection: before=%d after=%d", before, after)
	}
}

func TestInjectSlowTransitions(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	hits := 0
	for i := 0; i < 100; i++ {
		words := []string{"one", "two", "six"}
		area := []model.FocusArea{{Kind: model.FocusSlowTransitions, Items: []string{"qu"}}}
		if countContaining(injectFocus(rnd, words, area), "qu") > 0 {
			hits++
		}
	}
	if hits == 0 || hits == 100 {
		t.Fatalf("expected gated bigram injection, got %d of 100", hits)
	}
}

func TestReduceMasteredLowersKeyFrequency(t *testing.T) {
	rnd := rand.New(rand.NewSource(13))
	mastered := []model.MasteredItem{{Kind: model.MasteredKeys, Items: []string{"e"}}}
	before, after := 0, 0
	for i := 0; i < 300; i++ {
		words := strings.Fields(fillTemplate(rnd, pick(rnd, gradeExpert.templates), gradeExpert.vocab))
		before += countContaining(words, "e")
		after += countContaining(reduceMastered(rnd, words, mastered), "e")
	}
	if after >= before {
		t.Fatalf("expected fewer words with e after reduction: before=%d after=%d", before, after)
	}
}

func TestWordWithBigram(t *testing.T) {
	g := seeded()
	if w := g.WordWithBigram("th"); !strings.Contains(w, "th") || !inBank(w, append(append(append([]string{}, wordlist.Easy...), wordlist.Medium...), wordlist.Hard...)) {
		t.Fatalf("expected bank word with th, got %q", w)
	}
	for i := 0; i < 20; i++ {
		w := g.WordWithBigram("qa")
		if !strings.Contains(w, "qa") || len(w) < 2 || len(w) > 4 {
			t.Fatalf("unexpected synthesized word %q", w)
		}
		w = g.WordWithBigram("ox")
		if !strings.Contains(w, "ox") || len(w) > 4 {
			t.Fatalf("unexpected synthesized word %q", w)
		}
	}
	for _, bigram := range []string{"zz", "e ", "", "xyz"} {
		if w := g.WordWithBigram(bigram); w != "" {
			t.Fatalf("expected no word for %q, got %q", bigram, w)
		}
	}
}

func countContaining(words []string, sub string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(w, sub) {
			n++
		}
	}
	return n
}
