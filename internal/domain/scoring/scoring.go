// Package scoring turns heterogeneous sub-scores into one calibrated
// 0-10 score. Every stage is pure arithmetic over pre-clamped inputs and
// never returns an error.
package scoring

import (
	"math"
	"strings"

	"thumbscope/internal/domain/model"
)

// Aspect derivation weights. Fixed design constants, not learned.
const (
	visualClarityFromClarity  = 0.5
	visualClarityFromContrast = 0.2
	visualClarityFromFocus    = 0.3

	technicalFromClarity  = 0.4
	technicalFromContrast = 0.3
	technicalFromText     = 0.3
)

// Base weighted-score constants. The weights sum to 1.0.
const (
	weightClarity   = 0.22
	weightText      = 0.24
	weightFocus     = 0.24
	weightEmotional = 0.18
	weightContrast  = 0.12
)

// Tier boost/cap thresholds applied over the five aspect values.
const (
	aspectHighThreshold = 8.0
	aspectSoftThreshold = 6.0
	aspectHardThreshold = 5.0

	boostStrongFloor = 7.8
	boostTopFloor    = 8.4
	capHardCeiling   = 6.2
	capSoftCeiling   = 6.8
)

// Global calibration: affine stretch compensating for the base weighted
// score trending low, then a flat bonus when the model's own verdict uses
// current-meta vocabulary.
const (
	calibrationSlope  = 1.1
	calibrationOffset = 1.0
	keywordBonus      = 1.2
)

// defaultKeywords are matched case-insensitively as substrings of the
// model verdict. Any number of matches contributes the bonus exactly once.
var defaultKeywords = []string{
	"modern",
	"professional",
	"clean",
	"cinematic",
	"high quality",
	"creator-grade",
	"well-designed",
	"already strong",
	"looks current",
	"contemporary",
	"polished",
	"strong thumbnail",
}

// SubScores is the five-field input shape of the calibrator. Values must
// be in [0,10]; NewSubScores clamps them.
type SubScores struct {
	Clarity         float64
	Contrast        float64
	TextReadability float64
	SubjectFocus    float64
	EmotionalImpact float64
}

// NewSubScores clamps each field into [0,10].
func NewSubScores(clarity, contrast, text, focus, emotional float64) SubScores {
	return SubScores{
		Clarity:         Clamp10(clarity),
		Contrast:        Clamp10(contrast),
		TextReadability: Clamp10(text),
		SubjectFocus:    Clamp10(focus),
		EmotionalImpact: Clamp10(emotional),
	}
}

// Option applies a configuration option to the Calibrator.
type Option func(*Calibrator)

// WithKeywords overrides the verdict keyword list.
func WithKeywords(keywords []string) Option {
	return func(c *Calibrator) {
		if len(keywords) > 0 {
			c.keywords = keywords
		}
	}
}

// Calibrator merges sub-scores into an AspectSet and one calibrated score.
type Calibrator struct {
	keywords []string
}

// NewCalibrator creates a Calibrator with the fixed default constants.
func NewCalibrator(opts ...Option) *Calibrator {
	c := &Calibrator{keywords: defaultKeywords}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeriveAspects computes the five derived quality dimensions as fixed
// linear combinations, clamped and rounded to one decimal.
func DeriveAspects(in SubScores) model.AspectSet {
	return model.AspectSet{
		VisualClarity: Round1(Clamp10(
			visualClarityFromClarity*in.Clarity +
				visualClarityFromContrast*in.Contrast +
				visualClarityFromFocus*in.SubjectFocus)),
		TextEffectiveness: Round1(Clamp10(in.TextReadability)),
		SubjectFocus:      Round1(Clamp10(in.SubjectFocus)),
		EmotionalPull:     Round1(Clamp10(in.EmotionalImpact)),
		TechnicalBalance: Round1(Clamp10(
			technicalFromClarity*in.Clarity +
				technicalFromContrast*in.Contrast +
				technicalFromText*in.TextReadability)),
	}
}

// Calibrate runs the full pipeline: aspect derivation, base weighted
// score, tier boosts/caps, affine stretch, and the verdict keyword bonus.
// verdict may be empty (no model signal).
func (c *Calibrator) Calibrate(in SubScores, verdict string) (model.AspectSet, float64) {
	aspects := DeriveAspects(in)

	raw := weightClarity*in.Clarity +
		weightText*in.TextReadability +
		weightFocus*in.SubjectFocus +
		weightEmotional*in.EmotionalImpact +
		weightContrast*in.Contrast

	raw = applyTierAdjustments(raw, aspects)

	score := calibrationSlope*raw + calibrationOffset
	if c.matchesKeyword(verdict) {
		score += keywordBonus
	}

	return aspects, Round1(Clamp10(score))
}

// applyTierAdjustments applies the one-directional boosts and caps. Boosts
// run first; caps are skipped once a boost fired so they can never lower a
// boosted value. The conditions are mutually exclusive by construction
// (boosts require at most one hard-low aspect, the hard cap requires three,
// the soft cap requires zero high aspects), so the guard only encodes
// priority.
func applyTierAdjustments(raw float64, aspects model.AspectSet) float64 {
	var highCount, lowSoft, lowHard int
	for _, v := range aspects.Values() {
		switch {
		case v >= aspectHighThreshold:
			highCount++
		case v < aspectHardThreshold:
			lowHard++
			lowSoft++
		case v < aspectSoftThreshold:
			lowSoft++
		}
	}

	boosted := false
	if highCount >= 3 && lowHard <= 1 {
		raw = math.Max(raw, boostStrongFloor)
		boosted = true
	}
	if highCount >= 4 && lowHard == 0 {
		raw = math.Max(raw, boostTopFloor)
		boosted = true
	}
	if boosted {
		return raw
	}

	if lowHard >= 3 {
		raw = math.Min(raw, capHardCeiling)
	} else if lowSoft >= 3 && highCount == 0 {
		raw = math.Min(raw, capSoftCeiling)
	}
	return raw
}

func (c *Calibrator) matchesKeyword(verdict string) bool {
	if verdict == "" {
		return false
	}
	lower := strings.ToLower(verdict)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Clamp10 clamps v into [0,10].
func Clamp10(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
