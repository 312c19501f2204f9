package wordlist

// Word banks graded by difficulty.
var (
	Easy = []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
		"was", "how", "its", "our", "who", "get", "day", "out", "use", "she",
	}

	Medium = []string{
		"which", "there", "their", "about", "would", "these", "other", "words",
		"could", "write", "first", "water", "after", "where", "right", "think",
		"years", "thing", "looks", "never", "under", "might", "while", "house",
	}

	Hard = []string{
		"through", "thought", "against", "between", "another", "because",
		"country", "example", "however", "important", "language", "national",
		"possible", "program", "question", "remember", "sentence", "together",
	}

	Expert = []string{
		"philosophical", "mathematical", "interpretation", "configuration",
		"authentication", "transformation", "implementation", "consciousness",
		"comprehensive", "environmental", "unprecedented", "simultaneously",
		"acknowledgment", "investigation", "communication", "representation",
		"significance", "infrastructure", "collaboration", "extraordinary",
	}

	Grandmaster = []string{
		"characterization", "multidimensional", "counterintuitive", "interdisciplinary",
		"telecommunications", "indistinguishable", "microarchitecture", "cryptographically",
		"misunderstanding", "responsibilities", "industrialization", "institutionalized",
		"compartmentalized", "unconstitutionally", "disproportionately", "inappropriateness",
		"enthusiastically", "interchangeability", "underestimated", "misrepresentation",
	}
)

// Sentence slot fillers.
var (
	Adjectives = []string{"quick", "brown", "lazy", "bright", "dark", "clever", "simple", "rapid", "silent", "efficient"}
	Nouns      = []string{"fox", "dog", "cat", "horse", "bird", "program", "system", "algorithm", "network", "interface"}
	Verbs      = []string{"jumps", "runs", "flies", "types", "codes", "thinks", "learns", "processes", "computes", "analyzes"}
	Adverbs    = []string{"quickly", "slowly", "carefully", "eagerly", "quietly", "efficiently", "precisely", "instantly"}
	Places     = []string{"forest", "house", "garden", "office", "library", "server", "database", "mainframe"}
	Names      = []string{"Alex", "Taylor", "Jordan", "Casey", "Morgan", "Sam", "Riley"}
)

// Containing returns the words that contain sub, preserving order.
func Containing(words []string, sub string) []string {
	return Filter(words, func(w string) bool { return contains(w, sub) })
}

// Without returns the words that do not contain sub and are at most maxLen bytes long.
func Without(words []string, sub string, maxLen int) []string {
	return Filter(words, func(w string) bool { return !contains(w, sub) && len(w) <= maxLen })
}
