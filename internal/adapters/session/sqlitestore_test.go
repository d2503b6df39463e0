package session_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"thumbscope/internal/adapters/session"
	"thumbscope/internal/domain/model"
)

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite session store on a temp database", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "sessions.db")
		store, err := session.NewSQLiteStore(path)
		So(err, ShouldBeNil)
		Reset(func() { _ = store.Close() })

		Convey("When creating and reusing a session", func() {
			id, err := store.GetOrCreate(ctx, "")
			So(err, ShouldBeNil)
			So(id, ShouldNotBeBlank)

			again, err := store.GetOrCreate(ctx, id)
			So(err, ShouldBeNil)
			So(again, ShouldEqual, id)

			Convey("And an unknown id mints a new session", func() {
				minted, err := store.GetOrCreate(ctx, "unknown-id")
				So(err, ShouldBeNil)
				So(minted, ShouldNotEqual, "unknown-id")
				So(store.Count(ctx), ShouldEqual, 2)
			})
		})

		Convey("When appending past the cap", func() {
			id, _ := store.GetOrCreate(ctx, "")
			for i := 1; i <= 25; i++ {
				err := store.Append(ctx, id, model.SessionEvent{
					Score:   6.0,
					Title:   fmt.Sprintf("video %d", i),
					Summary: "s",
				})
				So(err, ShouldBeNil)
			}

			events, err := store.History(ctx, id)
			So(err, ShouldBeNil)

			Convey("Then only the 20 most recent survive, in order", func() {
				So(events, ShouldHaveLength, 20)
				So(events[0].Title, ShouldEqual, "video 6")
				So(events[19].Title, ShouldEqual, "video 25")
			})
		})

		Convey("When summarizing stored history", func() {
			id, _ := store.GetOrCreate(ctx, "")
			_ = store.Append(ctx, id, model.SessionEvent{Score: 7.2, Title: "setup tour", Summary: "Solid thumbnail"})

			digest, err := store.Summarize(ctx, id)
			So(err, ShouldBeNil)
			So(digest, ShouldEqual, "[score=7.2] setup tour :: Solid thumbnail")
		})

		Convey("When the store is reopened", func() {
			id, _ := store.GetOrCreate(ctx, "")
			_ = store.Append(ctx, id, model.SessionEvent{Score: 8.0, Title: "persisted", Summary: "kept"})
			So(store.Close(), ShouldBeNil)

			reopened, err := session.NewSQLiteStore(path)
			So(err, ShouldBeNil)
			defer reopened.Close()

			Convey("Then sessions and events survive the restart", func() {
				back, err := reopened.GetOrCreate(ctx, id)
				So(err, ShouldBeNil)
				So(back, ShouldEqual, id)

				events, err := reopened.History(ctx, id)
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].Title, ShouldEqual, "persisted")
			})
		})
	})
}
