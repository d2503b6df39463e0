// Package review composes the ordered, human-readable review lines for a
// calibrated score. The composer never fails: absent model output falls
// back to aspect-derived observations, and an empty aspect picture still
// yields a generic line.
package review

import (
	"fmt"
	"strings"

	"thumbscope/internal/domain/model"
	"thumbscope/internal/domain/rating"
)

// Tier drives the tone of the synthesized review.
type Tier string

// Tiers, ordered high to low.
const (
	TierTop     Tier = "top"
	TierStrong  Tier = "strong"
	TierAverage Tier = "average"
	TierWeak    Tier = "weak"
)

// Tier classification cutoffs. The synthesized summary uses its own
// stricter top cutoff so only genuinely elite scores get the top-tier
// phrasing, while tier-driven behavior switches at the lower bound.
const (
	tierTopCutoff     = 8.5
	summaryTopCutoff  = 8.7
	tierStrongCutoff  = 7.0
	tierAverageCutoff = 5.5
)

// Item shaping limits.
const (
	maxPositivesShown    = 3
	maxImprovementsShown = 4
	minUsableSuggestions = 2
	minSummaryLength     = 10

	derivedStrengthFloor = 7.0
	derivedSuggestionBar = 6.0
)

// Classify maps a calibrated score to its tier. Tiers are non-overlapping
// and evaluated high to low.
func Classify(score float64) Tier {
	switch {
	case score >= tierTopCutoff:
		return TierTop
	case score >= tierStrongCutoff:
		return TierStrong
	case score >= tierAverageCutoff:
		return TierAverage
	default:
		return TierWeak
	}
}

// Derived observations in the fixed dimension order: visual_clarity,
// text_effectiveness, subject_focus, emotional_pull, technical_balance.
var derivedStrengths = [5]string{
	"The main subject and idea read clearly at a quick glance.",
	"The text is readable and supports the video idea.",
	"The main subject stands out from the background.",
	"The emotion or mood is strong enough to grab attention.",
	"Composition and technical quality look solid overall.",
}

var derivedSuggestions = [5]string{
	"Make the main subject and message clearer so it reads instantly on a phone screen.",
	"Use fewer words with larger, bolder text to improve readability in the feed.",
	"Make the key subject bigger or separate it more from the background.",
	"Push the emotion or tension a bit further so it feels more clickable.",
	"Clean up the composition or adjust contrast so the image feels less busy.",
}

const genericStrength = "The core concept of the thumbnail is understandable."

// Input bundles everything the composer may use. Opinion may be degraded
// and Engagement may be absent.
type Input struct {
	Score         float64
	Aspects       model.AspectSet
	Opinion       rating.Opinion
	Engagement    float64
	HasEngagement bool
}

// Composer builds review lines.
type Composer struct{}

// NewComposer creates a Composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose returns the ordered review: summary, strengths, suggested
// fixes, and the engagement outlook when available.
func (c *Composer) Compose(in Input) []string {
	lines := make([]string, 0, 12)
	lines = append(lines, c.summaryLine(in))

	lines = append(lines, "What's working:")
	for _, p := range c.strengths(in) {
		lines = append(lines, "- "+p)
	}

	if suggestions := c.suggestions(in); len(suggestions) > 0 {
		lines = append(lines, "What you could test next:")
		for _, s := range suggestions {
			lines = append(lines, "- "+s)
		}
	}

	if in.HasEngagement {
		lines = append(lines, fmt.Sprintf(
			"Engagement outlook %.1f/10 - Predicted engagement potential: %.1f/10.",
			in.Engagement, in.Engagement))
	}
	return lines
}

// summaryLine prefers the model's own verdict; otherwise it synthesizes
// from the tier tone templates, always carrying the numeric score.
func (c *Composer) summaryLine(in Input) string {
	scoreStr := fmt.Sprintf("%.1f/10", in.Score)

	if in.Opinion.Structured() {
		if v := strings.TrimSpace(in.Opinion.Verdict); len(v) > minSummaryLength {
			return fmt.Sprintf("%s (%s).", v, scoreStr)
		}
	}

	switch {
	case in.Score >= summaryTopCutoff:
		return fmt.Sprintf("Top-tier thumbnail (%s); already strong, only optional polish left.", scoreStr)
	case in.Score >= tierStrongCutoff:
		return fmt.Sprintf("Solid thumbnail (%s); a few targeted improvements can push it further.", scoreStr)
	case in.Score >= tierAverageCutoff:
		return fmt.Sprintf("Understandable thumbnail (%s); it needs a visual upgrade to compete in the feed.", scoreStr)
	default:
		return fmt.Sprintf("Weak thumbnail (%s); it needs a clearer, more deliberate redesign.", scoreStr)
	}
}

// strengths prefers model positives in their original order, falls back to
// canned observations for every aspect at or above the strength floor, and
// guarantees at least one line.
func (c *Composer) strengths(in Input) []string {
	if in.Opinion.Structured() && len(in.Opinion.Positives) > 0 {
		out := in.Opinion.Positives
		if len(out) > maxPositivesShown {
			out = out[:maxPositivesShown]
		}
		return out
	}

	out := make([]string, 0, maxPositivesShown)
	for i, v := range in.Aspects.Values() {
		if v >= derivedStrengthFloor {
			out = append(out, derivedStrengths[i])
		}
		if len(out) == maxPositivesShown {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, genericStrength)
	}
	return out
}

// suggestions prefers model improvements and tops up with canned
// suggestions for every aspect below the bar, never naming a dimension
// twice.
func (c *Composer) suggestions(in Input) []string {
	out := make([]string, 0, maxImprovementsShown)
	if in.Opinion.Structured() {
		out = append(out, in.Opinion.Improvements...)
	}

	if len(out) < minUsableSuggestions {
		for i, v := range in.Aspects.Values() {
			if v >= derivedSuggestionBar {
				continue
			}
			if !containsLine(out, derivedSuggestions[i]) {
				out = append(out, derivedSuggestions[i])
			}
		}
	}

	if len(out) > maxImprovementsShown {
		out = out[:maxImprovementsShown]
	}
	return out
}

func containsLine(lines []string, s string) bool {
	for _, l := range lines {
		if l == s {
			return true
		}
	}
	return false
}
