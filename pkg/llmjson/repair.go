package llmjson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Outcome describes how a structured payload was obtained from raw model output.
type Outcome int

const (
	// OutcomeOk means the payload parsed directly or after mechanical repair.
	OutcomeOk Outcome = iota
	// OutcomeDegraded means parsing failed and the caller-supplied default was used.
	OutcomeDegraded
	// OutcomeErr means parsing failed and no default was available.
	OutcomeErr
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeDegraded:
		return "degraded"
	default:
		return "err"
	}
}

// fenceRe matches ```json ... ``` or ``` ... ``` wrappers models love to add.
var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// trailingCommaRe matches a comma directly before a closing brace/bracket.
var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// unquotedKeyRe matches bare object keys like {foo: 1} or , bar: 2.
var unquotedKeyRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// StripFences removes a surrounding markdown code fence, if present.
// Text outside the first fenced block is discarded.
func StripFences(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); len(m) == 2 {
		return m[1]
	}
	return strings.TrimSpace(raw)
}

// Parse attempts to decode raw model output into out using a cascade:
// strip code fences -> direct parse -> trailing-comma repair -> unquoted-key
// repair. It returns OutcomeOk on any success and an error otherwise; it never
// touches out on failure.
func Parse(raw string, out interface{}) (Outcome, error) {
	candidate := StripFences(raw)

	// Some models wrap JSON in prose. Narrow to the outermost object/array.
	if idx := strings.IndexAny(candidate, "{["); idx > 0 {
		end := strings.LastIndexAny(candidate, "}]")
		if end > idx {
			candidate = candidate[idx : end+1]
		}
	}

	if err := json.Unmarshal([]byte(candidate), out); err == nil {
		return OutcomeOk, nil
	}

	repaired := trailingCommaRe.ReplaceAllString(candidate, "$1")
	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		return OutcomeOk, nil
	}

	repaired = unquotedKeyRe.ReplaceAllString(repaired, `$1"$2":`)
	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		return OutcomeOk, nil
	}

	return OutcomeErr, fmt.Errorf("llmjson: output not parseable as JSON after repair cascade")
}

// ParseWithDefault runs Parse and, when the cascade fails, copies the
// caller-supplied default into out. The Degraded outcome makes the fallback an
// explicit branch callers can observe (and reject, when a degraded result is
// not acceptable for the task at hand).
func ParseWithDefault(raw string, out interface{}, def interface{}) (Outcome, error) {
	outcome, err := Parse(raw, out)
	if outcome == OutcomeOk {
		return OutcomeOk, nil
	}
	if def == nil {
		return OutcomeErr, err
	}

	// Round-trip the default through JSON so it lands in out regardless of
	// the concrete pointer types involved.
	data, mErr := json.Marshal(def)
	if mErr != nil {
		return OutcomeErr, fmt.Errorf("llmjson: marshal default: %w", mErr)
	}
	if uErr := json.Unmarshal(data, out); uErr != nil {
		return OutcomeErr, fmt.Errorf("llmjson: apply default: %w", uErr)
	}
	return OutcomeDegraded, nil
}
