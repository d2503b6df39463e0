package rating_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"thumbscope/internal/domain/rating"
)

func TestDecode(t *testing.T) {
	Convey("Given raw model output", t, func() {
		Convey("When the payload is clean JSON", func() {
			op := rating.Decode(`{
				"quality_score": 7.5,
				"overall_verdict": "A clear, punchy thumbnail.",
				"positives": ["Strong subject separation", "Readable title text"],
				"improvements": ["Increase contrast on the left side"],
				"ratings": {"clarity": 8, "contrast": 6.5}
			}`)

			Convey("Then all fields decode", func() {
				So(op.Structured(), ShouldBeTrue)
				So(op.QualityScore, ShouldEqual, 7.5)
				So(op.Verdict, ShouldEqual, "A clear, punchy thumbnail.")
				So(op.Positives, ShouldHaveLength, 2)
				So(op.Improvements, ShouldHaveLength, 1)
				v, ok := op.SubScore("clarity")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 8.0)
			})
		})

		Convey("When the JSON is wrapped in a markdown fence", func() {
			op := rating.Decode("```json\n{\"quality_score\": 6, \"overall_verdict\": \"Decent framing overall.\"}\n```")

			So(op.Structured(), ShouldBeTrue)
			So(op.QualityScore, ShouldEqual, 6.0)
			So(op.Verdict, ShouldEqual, "Decent framing overall.")
		})

		Convey("When the JSON is buried in prose", func() {
			op := rating.Decode(`Sure! Here is my assessment:
{"quality_score": "8", "overall_verdict": "Bold and attention-grabbing."}
Hope that helps.`)

			Convey("Then the embedded object is extracted", func() {
				So(op.Structured(), ShouldBeTrue)
				So(op.QualityScore, ShouldEqual, 8.0)
			})
		})

		Convey("When the score comes back as a string", func() {
			op := rating.Decode(`{"quality_score": " 9.2 ", "overall_verdict": "Excellent."}`)
			So(op.QualityScore, ShouldEqual, 9.2)
		})

		Convey("When weaknesses are listed separately", func() {
			op := rating.Decode(`{
				"overall_verdict": "Mixed results here.",
				"improvements": ["Make the face larger"],
				"weaknesses": ["Background is cluttered"]
			}`)

			Convey("Then they merge into improvements", func() {
				So(op.Improvements, ShouldResemble, []string{
					"Make the face larger",
					"Background is cluttered",
				})
			})
		})

		Convey("When list entries are junk", func() {
			op := rating.Decode(`{
				"overall_verdict": "Fine.",
				"quality_score": 5,
				"positives": ["  ", "ok", 42, "A genuinely useful observation"]
			}`)

			Convey("Then short and non-string entries are dropped", func() {
				So(op.Positives, ShouldResemble, []string{"A genuinely useful observation"})
			})
		})

		Convey("When ratings use odd keys and values", func() {
			op := rating.Decode(`{
				"overall_verdict": "Okay thumbnail.",
				"ratings": {"Text Readability": "7", "clarity": 15, "contrast": "n/a"}
			}`)

			Convey("Then keys normalize and values clamp", func() {
				v, ok := op.SubScore("text_readability")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 7.0)
				v, ok = op.SubScore("clarity")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 10.0)
				_, ok = op.SubScore("contrast")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the output is pure prose", func() {
			raw := "This thumbnail looks nice but I cannot give structured output."
			op := rating.Decode(raw)

			Convey("Then the result is degraded, not an error", func() {
				So(op.Degraded, ShouldBeTrue)
				So(op.DegradedReason, ShouldEqual, rating.ReasonUnstructured)
				So(op.RawText, ShouldEqual, raw)
			})
		})

		Convey("When the output is empty", func() {
			op := rating.Decode("   ")
			So(op.Degraded, ShouldBeTrue)
			So(op.DegradedReason, ShouldEqual, rating.ReasonEmptyResponse)
		})

		Convey("When a JSON object carries no usable content", func() {
			op := rating.Decode(`{"unrelated": true}`)
			So(op.Degraded, ShouldBeTrue)
		})
	})
}

func TestOpinionHelpers(t *testing.T) {
	Convey("Given a degraded opinion", t, func() {
		op := rating.Degrade("model call timed out", "partial text")

		Convey("Then it exposes no sub-scores", func() {
			So(op.Structured(), ShouldBeFalse)
			_, ok := op.SubScore("clarity")
			So(ok, ShouldBeFalse)
			So(op.HasAllSubScores("clarity"), ShouldBeFalse)
		})
	})

	Convey("Given a fully rated opinion", t, func() {
		op := rating.Opinion{Ratings: map[string]float64{"clarity": 5, "contrast": 6}}

		So(op.HasAllSubScores("clarity", "contrast"), ShouldBeTrue)
		So(op.HasAllSubScores("clarity", "subject_focus"), ShouldBeFalse)
	})
}
