package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	convey.Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(Init(WithOutput(&buf), WithJSON()), convey.ShouldBeNil)
		defer func() { _ = Init() }()
		ctx := context.Background()

		convey.Convey("When logging with fields", func() {
			Named("compiler").Info(ctx, "compiled",
				String("league", "l1"),
				Int("members", 4),
				Bool("cached", false),
				Duration("took", time.Millisecond),
				Error(errors.New("boom")),
			)

			var line map[string]any
			convey.So(json.Unmarshal(buf.Bytes(), &line), convey.ShouldBeNil)

			convey.Convey("Then fields, component and source are recorded", func() {
				convey.So(line["msg"], convey.ShouldEqual, "compiled")
				convey.So(line["league"], convey.ShouldEqual, "l1")
				convey.So(line["members"], convey.ShouldEqual, float64(4))
				convey.So(line["cached"], convey.ShouldEqual, false)
				convey.So(line["component"], convey.ShouldEqual, "compiler")
				convey.So(line["source"], convey.ShouldContainSubstring, "logger_test.go")
			})
		})

		convey.Convey("When the level is raised", func() {
			convey.So(SetLevelString("error"), convey.ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Debug(ctx, "hidden")

			convey.Convey("Then lower levels are dropped", func() {
				convey.So(buf.Len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the level is unknown", func() {
			convey.So(SetLevelString("loud"), convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given the nop logger", t, func() {
		l := Nop()
		convey.So(func() { l.Named("x").Info(context.Background(), "ignored") }, convey.ShouldNotPanic)
		convey.So(Sync(), convey.ShouldBeNil)
	})
}
