package rating

import (
	"encoding/json"
	"strconv"
	"strings"
)

// wireOpinion mirrors the JSON shape the prompt asks the model for. Field
// types are loose on purpose: hosted models routinely return numbers as
// strings and scalars where lists were requested.
type wireOpinion struct {
	QualityScore   any            `json:"quality_score"`
	OverallVerdict string         `json:"overall_verdict"`
	Summary        string         `json:"summary"`
	Positives      []any          `json:"positives"`
	Improvements   []any          `json:"improvements"`
	Weaknesses     []any          `json:"weaknesses"`
	Ratings        map[string]any `json:"ratings"`
}

// Degradation reasons surfaced in diagnostics.
const (
	ReasonEmptyResponse = "empty model response"
	ReasonUnstructured  = "unstructured model output"
)

// Decode turns raw model output into an Opinion. It strips markdown code
// fences, then tries the whole payload as JSON, then scans the prose for an
// embedded JSON object. Unrecoverable text yields a degraded opinion, never
// an error.
func Decode(raw string) Opinion {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Degrade(ReasonEmptyResponse, "")
	}

	candidate := stripFences(raw)
	var w wireOpinion
	if err := json.Unmarshal([]byte(candidate), &w); err != nil {
		embedded, ok := extractObject(candidate)
		if !ok {
			return Degrade(ReasonUnstructured, raw)
		}
		if err := json.Unmarshal([]byte(embedded), &w); err != nil {
			return Degrade(ReasonUnstructured, raw)
		}
	}

	verdict := strings.TrimSpace(w.OverallVerdict)
	if verdict == "" {
		verdict = strings.TrimSpace(w.Summary)
	}

	op := Opinion{
		QualityScore: clampScore(asFloat(w.QualityScore, 0)),
		Verdict:      verdict,
		Positives:    cleanList(asStrings(w.Positives)),
		Improvements: cleanList(asStrings(append(w.Improvements, w.Weaknesses...))),
		RawText:      raw,
	}

	for key, v := range w.Ratings {
		f := asFloat(v, -1)
		if f < 0 {
			continue
		}
		if op.Ratings == nil {
			op.Ratings = make(map[string]float64, len(w.Ratings))
		}
		op.Ratings[normalizeKey(key)] = clampScore(f)
	}

	// A parsed object with neither a verdict nor a score is no better
	// than prose.
	if op.Verdict == "" && w.QualityScore == nil && op.Ratings == nil {
		return Degrade(ReasonUnstructured, raw)
	}
	return op
}

// stripFences removes a single wrapping markdown code fence, with or
// without a language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s[3:]
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// extractObject finds the first balanced top-level JSON object in s.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func asFloat(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return fallback
}

func asStrings(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(key, " ", "_")
}

func clampScore(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 10 {
		return 10
	}
	return f
}
