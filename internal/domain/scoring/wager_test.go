package scoring_test

import (
	"errors"
	"testing"

	"github.com/okian/tribescore/internal/domain/model"
	scoring "github.com/okian/tribescore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCheckWager(t *testing.T) {
	Convey("Given a member with 12 points after episode 2", t, func() {
		table := model.ScoreTable{
			model.BucketMember: {"M1": {0, 4, 12, 30}},
		}

		Convey("Then bets within the balance are admitted", func() {
			So(scoring.CheckWager(table, "M1", 3, 2, 10), ShouldBeNil)
		})

		Convey("Then later points do not count toward the balance", func() {
			err := scoring.CheckWager(table, "M1", 3, 2, 11)
			So(errors.Is(err, scoring.ErrInsufficientBalance), ShouldBeTrue)
		})

		Convey("Then negative bets are rejected", func() {
			err := scoring.CheckWager(table, "M1", 3, 0, -1)
			So(errors.Is(err, scoring.ErrNegativeBet), ShouldBeTrue)
		})

		Convey("Then unknown members have nothing to stake", func() {
			So(scoring.CheckWager(table, "M9", 3, 0, 0), ShouldBeNil)
			So(errors.Is(scoring.CheckWager(table, "M9", 3, 0, 1), scoring.ErrInsufficientBalance), ShouldBeTrue)
		})
	})
}

func TestOutstandingWagers(t *testing.T) {
	Convey("Given a mix of predictions", t, func() {
		preds := []model.Prediction{
			{Episode: 3, Maker: "M1", Bet: bet(4)},
			{Episode: 3, Maker: "M1", Bet: bet(6)},
			{Episode: 3, Maker: "M1", Bet: bet(9), Hit: hit(true)},
			{Episode: 2, Maker: "M1", Bet: bet(9)},
			{Episode: 3, Maker: "M2", Bet: bet(9)},
			{Episode: 3, Maker: "M1"},
		}

		Convey("Then only the member's unresolved bets for the episode add up", func() {
			So(scoring.OutstandingWagers(preds, "M1", 3), ShouldEqual, 10)
		})
	})
}
