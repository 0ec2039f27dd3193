package constant

// ContradictionGroups lists mutually exclusive topic families. When two
// intents independently match different members of the same group, the pair
// is excluded from merge candidacy regardless of its overlap scores.
//
// These are hand-tuned heuristics carried over as configuration rather than
// derived values; adjust per deployment.
var ContradictionGroups = [][]string{
	{"react", "vue", "angular", "svelte"},
	{"python", "golang", "rust", "java", "ruby"},
	{"postgres", "mysql", "mongodb", "sqlite"},
	{"aws", "azure", "gcp"},
	{"football", "basketball", "tennis", "cricket", "baseball"},
	{"cooking", "fitness", "travel", "finance"},
	{"ios", "android"},
}
