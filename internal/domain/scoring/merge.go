package scoring

import (
	"thumbscope/internal/domain/model"
	"thumbscope/internal/domain/rating"
)

// Sub-score dimension keys as they appear in model ratings.
const (
	KeyClarity         = "clarity"
	KeyContrast        = "contrast"
	KeyTextReadability = "text_readability"
	KeySubjectFocus    = "subject_focus"
	KeyEmotionalImpact = "emotional_impact"
)

// Merge selects the calibrator's sub-scores from the strongest available
// signal: per-dimension model ratings first, pixel features next, the
// neutral midpoint last. The returned source names the family that drove
// the majority of fields, for diagnostics.
func Merge(op rating.Opinion, features model.FeatureSet, haveFeatures bool) (SubScores, model.ScoreSource) {
	pick := func(key string, fallback float64) (float64, bool) {
		if v, ok := op.SubScore(key); ok {
			return v, true
		}
		return fallback, false
	}

	neutral := model.NeutralFeatures()
	base := neutral
	source := model.SourceNeutral
	if haveFeatures {
		base = features
		source = model.SourceHeuristics
	}

	var fromModel int
	clarity, ok := pick(KeyClarity, base.Clarity)
	if ok {
		fromModel++
	}
	contrast, ok := pick(KeyContrast, base.Contrast)
	if ok {
		fromModel++
	}
	text, ok := pick(KeyTextReadability, base.TextReadability)
	if ok {
		fromModel++
	}
	focus, ok := pick(KeySubjectFocus, base.SubjectFocus)
	if ok {
		fromModel++
	}
	emotional, ok := pick(KeyEmotionalImpact, base.EmotionalImpact)
	if ok {
		fromModel++
	}

	if fromModel >= 3 {
		source = model.SourceModel
	}
	return NewSubScores(clarity, contrast, text, focus, emotional), source
}
