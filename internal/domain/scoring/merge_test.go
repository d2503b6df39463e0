package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"thumbscope/internal/domain/model"
	"thumbscope/internal/domain/rating"
	"thumbscope/internal/domain/scoring"
)

func TestMerge(t *testing.T) {
	Convey("Given pixel features and a model opinion", t, func() {
		feats := model.FeatureSet{
			Clarity:         6.0,
			Contrast:        5.0,
			TextReadability: 4.0,
			SubjectFocus:    7.0,
			EmotionalImpact: 3.0,
		}

		Convey("When the model rated every dimension", func() {
			op := rating.Opinion{Ratings: map[string]float64{
				scoring.KeyClarity:         9.0,
				scoring.KeyContrast:        8.0,
				scoring.KeyTextReadability: 7.0,
				scoring.KeySubjectFocus:    6.0,
				scoring.KeyEmotionalImpact: 5.0,
			}}
			merged, source := scoring.Merge(op, feats, true)

			Convey("Then model ratings win over features", func() {
				So(merged.Clarity, ShouldEqual, 9.0)
				So(merged.EmotionalImpact, ShouldEqual, 5.0)
				So(source, ShouldEqual, model.SourceModel)
			})
		})

		Convey("When the model rated only some dimensions", func() {
			op := rating.Opinion{Ratings: map[string]float64{
				scoring.KeyClarity:  9.0,
				scoring.KeyContrast: 8.0,
			}}
			merged, source := scoring.Merge(op, feats, true)

			Convey("Then unrated dimensions fall back to features", func() {
				So(merged.Clarity, ShouldEqual, 9.0)
				So(merged.TextReadability, ShouldEqual, 4.0)
				So(merged.SubjectFocus, ShouldEqual, 7.0)
			})

			Convey("And two model fields are not a majority", func() {
				So(source, ShouldEqual, model.SourceHeuristics)
			})
		})

		Convey("When three model fields are present", func() {
			op := rating.Opinion{Ratings: map[string]float64{
				scoring.KeyClarity:         9.0,
				scoring.KeyContrast:        8.0,
				scoring.KeyTextReadability: 7.0,
			}}
			_, source := scoring.Merge(op, feats, true)

			Convey("Then the majority flips the source to model", func() {
				So(source, ShouldEqual, model.SourceModel)
			})
		})

		Convey("When the opinion is degraded", func() {
			op := rating.Degrade("model call timed out", "")
			merged, source := scoring.Merge(op, feats, true)

			Convey("Then features drive every dimension", func() {
				So(merged.Clarity, ShouldEqual, 6.0)
				So(merged.Contrast, ShouldEqual, 5.0)
				So(source, ShouldEqual, model.SourceHeuristics)
			})
		})

		Convey("When neither model nor features are available", func() {
			op := rating.Degrade("model disabled", "")
			merged, source := scoring.Merge(op, model.FeatureSet{}, false)

			Convey("Then every dimension is the neutral midpoint", func() {
				So(merged.Clarity, ShouldEqual, model.NeutralSubScore)
				So(merged.Contrast, ShouldEqual, model.NeutralSubScore)
				So(merged.TextReadability, ShouldEqual, model.NeutralSubScore)
				So(merged.SubjectFocus, ShouldEqual, model.NeutralSubScore)
				So(merged.EmotionalImpact, ShouldEqual, model.NeutralSubScore)
				So(source, ShouldEqual, model.SourceNeutral)
			})
		})
	})
}

func TestEngagement(t *testing.T) {
	Convey("Given the engagement estimator", t, func() {
		Convey("When folding the display metrics", func() {
			h := scoring.HeuristicScore(8.0, 6.0, 9.5)
			So(h, ShouldAlmostEqual, 7.5, 0.01) // .4*8 + .4*6 + .2*9.5
		})

		Convey("When the verdict is long", func() {
			verdict := make([]byte, 2000)
			for i := range verdict {
				verdict[i] = 'a'
			}
			e := scoring.Engagement(7.0, 8.0, string(verdict))

			Convey("Then the verdict term saturates at 10", func() {
				So(e, ShouldAlmostEqual, 8.2, 0.01) // .4*7 + .3*8 + .3*10
			})
		})

		Convey("When there is no verdict at all", func() {
			e := scoring.Engagement(7.0, 8.0, "")
			So(e, ShouldAlmostEqual, 5.2, 0.01) // .4*7 + .3*8
		})

		Convey("Then the estimate always stays in range", func() {
			So(scoring.Engagement(0, 0, ""), ShouldEqual, 0)
			So(scoring.Engagement(10, 10, "x"), ShouldBeLessThanOrEqualTo, 10)
		})
	})
}
