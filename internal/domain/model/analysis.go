// Package model contains domain models passed between layers.
package model

// Mode selects the timeout budget for a single analysis.
type Mode string

// Analysis modes.
const (
	ModeQuick Mode = "quick"
	ModeDeep  Mode = "deep"
)

// ParseMode normalizes a user-supplied mode string, defaulting to quick.
func ParseMode(s string) Mode {
	if Mode(s) == ModeDeep {
		return ModeDeep
	}
	return ModeQuick
}

// FeatureSet holds normalized pixel-derived sub-scores, each in [0,10].
// Brightness and AspectRatioFit are display-only and never feed the
// calibrator.
type FeatureSet struct {
	Clarity         float64 `json:"clarity"`
	Contrast        float64 `json:"contrast"`
	TextReadability float64 `json:"text_readability"`
	SubjectFocus    float64 `json:"subject_focus"`
	EmotionalImpact float64 `json:"emotional_impact"`

	Brightness     float64 `json:"brightness"`
	AspectRatioFit float64 `json:"aspect_ratio_fit"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// NeutralSubScore is substituted for any sub-score that no signal source
// could provide.
const NeutralSubScore = 5.5

// NeutralFeatures returns a FeatureSet with every scoring field at the
// neutral midpoint.
func NeutralFeatures() FeatureSet {
	return FeatureSet{
		Clarity:         NeutralSubScore,
		Contrast:        NeutralSubScore,
		TextReadability: NeutralSubScore,
		SubjectFocus:    NeutralSubScore,
		EmotionalImpact: NeutralSubScore,
	}
}

// AspectSet holds the five derived quality dimensions, each in [0,10]
// rounded to one decimal.
type AspectSet struct {
	VisualClarity     float64 `json:"visual_clarity"`
	TextEffectiveness float64 `json:"text_effectiveness"`
	SubjectFocus      float64 `json:"subject_focus"`
	EmotionalPull     float64 `json:"emotional_pull"`
	TechnicalBalance  float64 `json:"technical_balance"`
}

// Values returns the aspect scores in the fixed dimension order used for
// derived review items.
func (a AspectSet) Values() [5]float64 {
	return [5]float64{
		a.VisualClarity,
		a.TextEffectiveness,
		a.SubjectFocus,
		a.EmotionalPull,
		a.TechnicalBalance,
	}
}

// ScoreSource names which signal family produced the calibrator's
// sub-scores.
type ScoreSource string

// Sub-score sources, strongest first.
const (
	SourceModel      ScoreSource = "model"
	SourceHeuristics ScoreSource = "heuristics"
	SourceNeutral    ScoreSource = "neutral"
)

// AnalyzeRequest carries one thumbnail through the pipeline.
type AnalyzeRequest struct {
	Image       []byte
	Title       string
	Description string
	SessionID   string
	Mode        Mode
}

// Diagnostics is the per-request metadata attached to a report.
type Diagnostics struct {
	ModelUsed        bool        `json:"model_used"`
	DegradedReason   string      `json:"degraded_reason,omitempty"`
	RepeatSubmission bool        `json:"repeat_submission"`
	EngagementScore  float64     `json:"engagement_score"`
	Features         FeatureSet  `json:"features"`
	Sources          ScoreSource `json:"sources"`
	ModelLatencyMS   int64       `json:"model_latency_ms"`
}

// Report is the final outcome of one analysis.
type Report struct {
	Score     float64     `json:"score"`
	Review    []string    `json:"review"`
	Aspects   AspectSet   `json:"aspects"`
	Meta      Diagnostics `json:"meta"`
	SessionID string      `json:"session_id"`
}

// SessionEvent is one append-only history entry for a session. Ordering is
// implicit: newest last.
type SessionEvent struct {
	Score   float64 `json:"score"`
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
}
