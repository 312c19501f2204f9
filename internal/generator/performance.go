package generator

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/verte-zerg/keycoach/internal/model"
	"github.com/verte-zerg/keycoach/internal/wordlist"
)

const (
	grandmasterAbove = 80
	expertAbove      = 40

	focusGate         = 0.7
	focusKeysPerArea  = 2
	focusReplace      = 0.3
	masteredGate      = 0.6
	masteredKeysLimit = 3
	masteredReplace   = 0.4
	masteredLenSlack  = 2
)

type grade struct {
	vocab     []string
	templates []string
}

var (
	gradeGrandmaster = grade{
		vocab: wordlist.Grandmaster,
		templates: []string{
			"The {complex} {noun} {verb} {adv} despite the {complex} {noun}",
			"Understanding {complex} requires {adj} {noun} and {complex} {noun}",
			"The {noun} {verb} {adv} because of the {complex} {noun}",
			"Although {complex} is {adj} the {noun} {verb} {complex}",
			"The {complex} {noun} and {complex} {noun} {verb} {adv}",
			"It was {complex} that the {noun} {verb} the {complex} {noun}",
			"The {adj} {noun} demonstrated {complex} during the {complex} {noun}",
		},
	}
	gradeExpert = grade{
		vocab: wordlist.Expert,
		templates: []string{
			"The {adj} {noun} {verb} {adv} through the {place}",
			"The {complex} {noun} {verb} the {adj} {noun}",
			"Because of {complex} the {noun} {verb} {adv}",
			"{Name} {verb} the {complex} {noun} from the {place}",
			"The {adj} {noun} is {complex} and {adj}",
			"While {name} {verb} the {noun} the {complex} {noun} {verb} {adv}",
		},
	}
	gradeHard = grade{
		vocab: wordlist.Hard,
		templates: []string{
			"The {adj} {noun} {verb} {adv} through the {place}",
			"{Name} quickly {verb} the {adj} {noun} from the {place}",
			"Although the {noun} was {adj} it {verb} {adv}",
			"When {name} {verb} the {noun} everything {verb} {adj}",
			"{Number} {adj} {noun} {verb} {adv} toward the {place}",
			"The {adj} {noun} and the {adj} {noun} {verb} {adv} together",
		},
	}
)

func gradeFor(words int) grade {
	switch {
	case words > grandmasterAbove:
		return gradeGrandmaster
	case words > expertAbove:
		return gradeExpert
	default:
		return gradeHard
	}
}

// performance builds template sentences whose vocabulary grows with the
// requested length, then biases them toward weaknesses and away from mastered keys.
type performance struct{}

func (performance) Generate(rnd *rand.Rand, words int, focus []model.FocusArea, mastered []model.MasteredItem) string {
	gr := gradeFor(words)
	var sentences []string
	used := 0
	for used < words {
		sentence := fillTemplate(rnd, pick(rnd, gr.templates), gr.vocab)
		fields := strings.Fields(sentence)
		if len(focus) > 0 {
			fields = injectFocus(rnd, fields, focus)
		}
		if len(mastered) > 0 {
			fields = reduceMastered(rnd, fields, mastered)
		}
		sentences = append(sentences, strings.Join(fields, " "))
		used += len(fields)
	}
	return strings.Join(sentences, " ")
}

// fillTemplate draws one value per slot name, so repeated slots in a
// sentence share the same word.
func fillTemplate(rnd *rand.Rand, template string, bank []string) string {
	r := strings.NewReplacer(
		"{adj}", pick(rnd, wordlist.Adjectives),
		"{noun}", pick(rnd, wordlist.Nouns),
		"{verb}", pick(rnd, wordlist.Verbs),
		"{adv}", pick(rnd, wordlist.Adverbs),
		"{place}", pick(rnd, wordlist.Places),
		"{name}", pick(rnd, wordlist.Names),
		"{Name}", pick(rnd, wordlist.Names),
		"{Number}", strconv.Itoa(2+rnd.Intn(9)),
		"{complex}", pick(rnd, bank),
	)
	return r.Replace(template)
}

func injectFocus(rnd *rand.Rand, words []string, focus []model.FocusArea) []string {
	for _, area := range focus {
		switch area.Kind {
		case model.FocusHighErrorKeys:
			if rnd.Float64() >= focusGate {
				continue
			}
			for _, key := range head(area.Items, focusKeysPerArea) {
				candidates := wordlist.Containing(wordlist.Medium, key)
				for i := range words {
					if rnd.Float64() < focusReplace && len(candidates) > 0 {
						words[i] = pick(rnd, candidates)
					}
				}
			}
		case model.FocusSlowTransitions:
			if rnd.Float64() >= focusGate {
				continue
			}
			for _, bigram := range head(area.Items, focusKeysPerArea) {
				if w := wordWithBigram(rnd, bigram); w != "" && len(words) > 0 {
					words[rnd.Intn(len(words))] = w
				}
			}
		}
	}
	return words
}

func reduceMastered(rnd *rand.Rand, words []string, mastered []model.MasteredItem) []string {
	for _, item := range mastered {
		if item.Kind != model.MasteredKeys || rnd.Float64() >= masteredGate {
			continue
		}
		for _, key := range head(item.Items, masteredKeysLimit) {
			if key == "" {
				continue
			}
			for i, w := range words {
				if !strings.Contains(w, key) || rnd.Float64() >= masteredReplace {
					continue
				}
				alternatives := wordlist.Without(wordlist.Medium, key, len(w)+masteredLenSlack)
				if len(alternatives) > 0 {
					words[i] = pick(rnd, alternatives)
				}
			}
		}
	}
	return words
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
