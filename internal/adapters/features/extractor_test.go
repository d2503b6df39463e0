package features_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"thumbscope/internal/adapters/features"
)

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func solidPNG(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return encodePNG(img)
}

func TestExtract(t *testing.T) {
	Convey("Given a feature extractor", t, func() {
		ctx := context.Background()
		ex := features.NewExtractor()

		Convey("When the bytes are not an image", func() {
			_, _, err := ex.Extract(ctx, []byte("definitely not pixels"))

			Convey("Then the undecodable sentinel is returned", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, features.ErrUndecodable), ShouldBeTrue)
			})
		})

		Convey("When decoding a solid mid-gray 16:9 frame", func() {
			data := solidPNG(160, 90, color.RGBA{R: 128, G: 128, B: 128, A: 255})
			fs, img, err := ex.Extract(ctx, data)

			So(err, ShouldBeNil)
			So(img, ShouldNotBeNil)

			Convey("Then dimensions and aspect fit are reported", func() {
				So(fs.Width, ShouldEqual, 160)
				So(fs.Height, ShouldEqual, 90)
				So(fs.AspectRatioFit, ShouldEqual, 9.5)
			})

			Convey("And a featureless frame scores flat", func() {
				So(fs.Contrast, ShouldEqual, 0)
				So(fs.Clarity, ShouldEqual, 0)
				So(fs.TextReadability, ShouldEqual, 0)
				So(fs.EmotionalImpact, ShouldEqual, 0)
				So(fs.Brightness, ShouldAlmostEqual, 5.0, 0.1)
			})
		})

		Convey("When decoding a high-contrast split frame", func() {
			img := image.NewRGBA(image.Rect(0, 0, 160, 90))
			for y := 0; y < 90; y++ {
				for x := 0; x < 160; x++ {
					c := color.RGBA{A: 255}
					if x >= 80 {
						c.R, c.G, c.B = 255, 255, 255
					}
					img.Set(x, y, c)
				}
			}
			fs, _, err := ex.Extract(ctx, encodePNG(img))

			So(err, ShouldBeNil)

			Convey("Then contrast is far above the flat frame", func() {
				So(fs.Contrast, ShouldBeGreaterThan, 5.0)
			})
		})

		Convey("When decoding a saturated red frame", func() {
			fs, _, err := ex.Extract(ctx, solidPNG(160, 90, color.RGBA{R: 255, A: 255}))

			So(err, ShouldBeNil)

			Convey("Then emotional impact reflects the saturation", func() {
				So(fs.EmotionalImpact, ShouldEqual, 10.0)
			})
		})

		Convey("When the same bytes are analyzed twice", func() {
			data := solidPNG(64, 64, color.RGBA{R: 40, G: 90, B: 200, A: 255})
			fs1, _, err1 := ex.Extract(ctx, data)
			fs2, _, err2 := ex.Extract(ctx, data)

			Convey("Then the outputs are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(fs1, ShouldResemble, fs2)
			})
		})

		Convey("When the frame is a 1x1 degenerate image", func() {
			fs, _, err := ex.Extract(ctx, solidPNG(1, 1, color.RGBA{A: 255}))

			So(err, ShouldBeNil)

			Convey("Then scoring fields sit at the neutral midpoint", func() {
				So(fs.Clarity, ShouldEqual, 5.5)
				So(fs.Contrast, ShouldEqual, 5.5)
				So(fs.Width, ShouldEqual, 1)
			})
		})
	})
}

func TestAspectFitCurve(t *testing.T) {
	Convey("Given frames of various shapes", t, func() {
		ctx := context.Background()
		ex := features.NewExtractor()

		shape := func(w, h int) float64 {
			fs, _, err := ex.Extract(ctx, solidPNG(w, h, color.RGBA{R: 100, G: 100, B: 100, A: 255}))
			So(err, ShouldBeNil)
			return fs.AspectRatioFit
		}

		Convey("Then 16:9 scores highest and squares score low", func() {
			So(shape(1280, 720), ShouldEqual, 9.5)
			So(shape(160, 100), ShouldEqual, 8.0)  // 1.6, delta ~0.18
			So(shape(4, 3), ShouldEqual, 6.0)      // 1.33, delta ~0.44
			So(shape(100, 100), ShouldBeLessThan, 6.0)
		})
	})
}
