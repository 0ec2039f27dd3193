package llmjson

import (
	"testing"
)

func TestParseCascade(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantOk  bool
		wantA   int
		wantB   int
	}{
		{
			name:   "clean json",
			raw:    `{"a": 1, "b": 2}`,
			wantOk: true,
			wantA:  1,
			wantB:  2,
		},
		{
			name:   "fenced json",
			raw:    "```json\n{\"a\": 3, \"b\": 4}\n```",
			wantOk: true,
			wantA:  3,
			wantB:  4,
		},
		{
			name:   "trailing comma",
			raw:    `{"a": 1, "b": 2,}`,
			wantOk: true,
			wantA:  1,
			wantB:  2,
		},
		{
			name:   "unquoted keys and trailing comma",
			raw:    `{a: 1, b: 2,}`,
			wantOk: true,
			wantA:  1,
			wantB:  2,
		},
		{
			name:   "prose wrapped json",
			raw:    "Sure! Here is the result:\n{\"a\": 7, \"b\": 8}\nLet me know if you need more.",
			wantOk: true,
			wantA:  7,
			wantB:  8,
		},
		{
			name:   "garbage",
			raw:    "I could not produce a result.",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				A int `json:"a"`
				B int `json:"b"`
			}
			outcome, err := Parse(tt.raw, &got)
			if tt.wantOk {
				if err != nil {
					t.Fatalf("Parse() error = %v, want success", err)
				}
				if outcome != OutcomeOk {
					t.Fatalf("Parse() outcome = %v, want OutcomeOk", outcome)
				}
				if got.A != tt.wantA || got.B != tt.wantB {
					t.Errorf("Parse() = {a:%d b:%d}, want {a:%d b:%d}", got.A, got.B, tt.wantA, tt.wantB)
				}
			} else {
				if outcome != OutcomeErr {
					t.Errorf("Parse() outcome = %v, want OutcomeErr", outcome)
				}
			}
		})
	}
}

func TestParseWithDefault(t *testing.T) {
	type insight struct {
		Insights []string `json:"insights"`
	}

	t.Run("repairable input skips the default", func(t *testing.T) {
		var got insight
		outcome, err := ParseWithDefault(`{insights: ["check the docs"],}`, &got, insight{})
		if err != nil {
			t.Fatalf("ParseWithDefault() error = %v", err)
		}
		if outcome != OutcomeOk {
			t.Fatalf("outcome = %v, want OutcomeOk", outcome)
		}
		if len(got.Insights) != 1 {
			t.Errorf("insights = %v, want one entry", got.Insights)
		}
	})

	t.Run("broken input falls back to default", func(t *testing.T) {
		var got insight
		outcome, err := ParseWithDefault("no json here", &got, insight{Insights: []string{}})
		if err != nil {
			t.Fatalf("ParseWithDefault() error = %v", err)
		}
		if outcome != OutcomeDegraded {
			t.Fatalf("outcome = %v, want OutcomeDegraded", outcome)
		}
		if got.Insights == nil || len(got.Insights) != 0 {
			t.Errorf("insights = %v, want empty list", got.Insights)
		}
	})

	t.Run("broken input without default errors", func(t *testing.T) {
		var got insight
		outcome, err := ParseWithDefault("no json here", &got, nil)
		if err == nil {
			t.Fatal("ParseWithDefault() expected error")
		}
		if outcome != OutcomeErr {
			t.Errorf("outcome = %v, want OutcomeErr", outcome)
		}
	})
}
