// Package rating defines the structured-or-degraded result of a remote
// model rating call and the decoding of loosely formatted model output.
package rating

import "strings"

// Maximum number of list items kept from a model response.
const maxListItems = 6

// Opinion is the tagged result of one model rating call. A structured
// opinion carries the model's own quality score and observations; a
// degraded opinion carries only the reason and whatever raw text came back.
// Downstream stages must treat a degraded opinion as "no model signal".
type Opinion struct {
	QualityScore float64
	Verdict      string
	Positives    []string
	Improvements []string

	// Ratings holds optional per-dimension sub-scores keyed by
	// clarity, contrast, text_readability, subject_focus,
	// emotional_impact. Absent keys mean the model gave no opinion on
	// that dimension.
	Ratings map[string]float64

	Degraded       bool
	DegradedReason string
	RawText        string
}

// Structured reports whether the opinion carries usable model output.
func (o Opinion) Structured() bool {
	return !o.Degraded
}

// SubScore returns the model's rating for one dimension, if present.
func (o Opinion) SubScore(key string) (float64, bool) {
	if o.Degraded || o.Ratings == nil {
		return 0, false
	}
	v, ok := o.Ratings[key]
	return v, ok
}

// HasAllSubScores reports whether the model rated every given dimension.
func (o Opinion) HasAllSubScores(keys ...string) bool {
	for _, k := range keys {
		if _, ok := o.SubScore(k); !ok {
			return false
		}
	}
	return len(keys) > 0
}

// Degrade builds the neutral fallback opinion substituted on transport
// failure, timeout, or unparseable output.
func Degrade(reason, raw string) Opinion {
	return Opinion{
		Degraded:       true,
		DegradedReason: reason,
		RawText:        raw,
	}
}

// cleanList trims entries, drops empty or near-empty ones, and caps the
// result.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if len(it) <= 5 {
			continue
		}
		out = append(out, it)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}
