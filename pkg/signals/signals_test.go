package signals

import (
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("How to configure the PostgreSQL connection pool in Go")
	want := map[string]bool{"configure": true, "postgresql": true, "connection": true, "pool": true}
	for w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
			}
		}
		if !found {
			t.Errorf("ExtractKeywords() missing %q in %v", w, got)
		}
	}
	for _, g := range got {
		if g == "how" || g == "the" {
			t.Errorf("ExtractKeywords() kept stop word %q", g)
		}
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.example.com/docs/page?q=1", "example.com"},
		{"http://blog.golang.org/slices", "blog.golang.org"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.raw); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestOverlapRatio(t *testing.T) {
	a := []string{"go", "gorm", "postgres", "index"}
	b := []string{"postgres", "replication"}
	// one shared term over the smaller set of size two
	if got := OverlapRatio(a, b); got != 0.5 {
		t.Errorf("OverlapRatio() = %v, want 0.5", got)
	}
	if got := OverlapRatio(nil, b); got != 0 {
		t.Errorf("OverlapRatio(empty) = %v, want 0", got)
	}
}

func TestSharedDomains(t *testing.T) {
	a := []string{"example.com", "golang.org"}
	b := []string{"golang.org", "pkg.go.dev", "golang.org"}
	if got := SharedDomains(a, b); got != 1 {
		t.Errorf("SharedDomains() = %d, want 1", got)
	}
}

func TestEngagementScore(t *testing.T) {
	if got := EngagementScore(0, 0, 0); got != 0 {
		t.Errorf("zero interaction should score 0, got %v", got)
	}
	full := EngagementScore(10*60*1000, 1.0, 3)
	if full != 1 {
		t.Errorf("saturated interaction should score 1, got %v", full)
	}
	mid := EngagementScore(60*1000, 0.5, 0)
	if mid <= 0 || mid >= 1 {
		t.Errorf("partial interaction should score strictly between 0 and 1, got %v", mid)
	}
}

func TestTopKeywords(t *testing.T) {
	weights := map[string]float64{"go": 5, "postgres": 3, "gorm": 3, "index": 1}
	got := TopKeywords(weights, 3)
	if len(got) != 3 || got[0] != "go" {
		t.Fatalf("TopKeywords() = %v, want go first and 3 entries", got)
	}
	// ties broken alphabetically for determinism
	if got[1] != "gorm" || got[2] != "postgres" {
		t.Errorf("TopKeywords() tie order = %v, want [gorm postgres]", got[1:])
	}
}
