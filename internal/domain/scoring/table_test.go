package scoring_test

import (
	"testing"

	"github.com/okian/tribescore/internal/domain/model"
	scoring "github.com/okian/tribescore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFinalize(t *testing.T) {
	Convey("Given ragged per-episode deltas", t, func() {
		deltas := model.ScoreTable{
			model.BucketCastaway: {"A": {0, 2, 0, 3}},
			model.BucketTribe:    {"Luvu": {0, 5}},
			model.BucketMember:   {"M1": {1}},
		}

		Convey("When finalized", func() {
			out := scoring.Finalize(deltas)

			Convey("Then every row is a running total of the same length", func() {
				So(out[model.BucketCastaway]["A"], ShouldResemble, []int{0, 2, 2, 5})
				So(out[model.BucketTribe]["Luvu"], ShouldResemble, []int{0, 5, 5, 5})
				So(out[model.BucketMember]["M1"], ShouldResemble, []int{1, 1, 1, 1})
			})

			Convey("And the deltas are untouched", func() {
				So(deltas[model.BucketTribe]["Luvu"], ShouldResemble, []int{0, 5})
			})
		})
	})

	Convey("Given a table with no entities", t, func() {
		out := scoring.Finalize(model.ScoreTable{})

		Convey("Then all buckets exist and are empty", func() {
			for _, b := range model.Buckets() {
				rows, ok := out[b]
				So(ok, ShouldBeTrue)
				So(rows, ShouldBeEmpty)
			}
		})
	})
}
