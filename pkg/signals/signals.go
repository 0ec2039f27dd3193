package signals

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// stopWords are skipped during keyword extraction. Intentionally small; the
// semantic-extraction job produces the higher-quality concept list later.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "how": true,
	"in": true, "is": true, "it": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "this": true, "to": true, "was": true,
	"what": true, "when": true, "where": true, "which": true, "with": true,
	"you": true, "your": true,
}

var wordRe = regexp.MustCompile(`[a-z0-9][a-z0-9+#.-]{2,}`)

// ExtractKeywords tokenizes free text (titles, selections, concepts) into
// lowercase keywords with stop words removed. Order follows first occurrence.
func ExtractKeywords(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		w = strings.Trim(w, ".-")
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// Domain extracts the registrable host from a raw URL, dropping a leading www.
// Returns "" when the URL cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// TopKeywords returns up to k keys of a keyword->weight map ordered by
// descending weight, ties broken alphabetically so output is deterministic.
func TopKeywords(weights map[string]float64, k int) []string {
	keys := make([]string, 0, len(weights))
	for key := range weights {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

// OverlapRatio computes |a ∩ b| / min(|a|, |b|) for two keyword sets.
// Returns 0 when either set is empty.
func OverlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	shared := 0
	for _, w := range b {
		if set[w] {
			shared++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared) / float64(smaller)
}

// SharedDomains counts distinct domains present in both sets.
func SharedDomains(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, d := range a {
		set[d] = true
	}
	shared := 0
	for _, d := range b {
		if set[d] {
			shared++
			set[d] = false
		}
	}
	return shared
}

// EngagementScore derives a 0-1 engagement score from raw interaction metrics
// when the ingestion collaborator did not provide one. Dwell time saturates at
// five minutes, scroll depth is already 0-1, and any text selection is a
// strong signal.
func EngagementScore(dwellMs int64, scrollDepth float64, selections int) float64 {
	dwell := float64(dwellMs) / (5 * 60 * 1000)
	if dwell > 1 {
		dwell = 1
	}
	if scrollDepth > 1 {
		scrollDepth = 1
	}
	sel := 0.0
	if selections > 0 {
		sel = 1
	}
	score := 0.5*dwell + 0.3*scrollDepth + 0.2*sel
	if score > 1 {
		score = 1
	}
	return score
}
