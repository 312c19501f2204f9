// Package generator builds adaptive practice text for each difficulty tier.
package generator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/keycoach/internal/model"
	"github.com/verte-zerg/keycoach/internal/wordlist"
)

// Strategy produces practice text for one tier.
type Strategy interface {
	Generate(rnd *rand.Rand, words int, focus []model.FocusArea, mastered []model.MasteredItem) string
}

// Generator dispatches to the strategy registered for a tier.
// It is safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	rnd        *rand.Rand
	strategies map[model.Tier]Strategy
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Generator drawing from rnd.
func NewWithRand(rnd *rand.Rand) *Generator {
	g := &Generator{rnd: rnd}
	g.setEasyWords(wordlist.Easy)
	return g
}

// WithEasyWords replaces the easy-word bank used by the controlled tier.
// An empty list keeps the built-in bank.
func (g *Generator) WithEasyWords(words []string) *Generator {
	if len(words) > 0 {
		g.mu.Lock()
		g.setEasyWords(words)
		g.mu.Unlock()
	}
	return g
}

func (g *Generator) setEasyWords(easy []string) {
	g.strategies = map[model.Tier]Strategy{
		model.TierFoundational: foundational{},
		model.TierControlled:   controlled{easy: easy},
		model.TierPerformance:  performance{},
	}
}

// Generate returns a practice text of at least words words.
func (g *Generator) Generate(tier model.Tier, words int, focus []model.FocusArea, mastered []model.MasteredItem) (string, error) {
	if words <= 0 {
		return "", fmt.Errorf("word count must be positive, got %d", words)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	strategy, ok := g.strategies[tier]
	if !ok {
		return "", fmt.Errorf("no strategy for tier %q", tier)
	}
	return strategy.Generate(g.rnd, words, focus, mastered), nil
}

// WordWithBigram finds a bank word containing bigram, or builds a short
// pronounceable one around it. It returns "" when neither is possible.
func (g *Generator) WordWithBigram(bigram string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return wordWithBigram(g.rnd, bigram)
}

func pick(rnd *rand.Rand, items []string) string {
	return items[rnd.Intn(len(items))]
}
