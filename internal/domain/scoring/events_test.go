package scoring_test

import (
	"errors"
	"testing"

	"github.com/okian/tribescore/internal/domain/model"
	scoring "github.com/okian/tribescore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func eventSeason() model.Input {
	return model.Input{
		Tribes: model.TribeTimeline{
			1: {"Luvu": {Castaways: []string{"A", "B", "C"}}},
		},
		Selections: model.SelectionTimeline{
			CastawayMembers: map[string][]string{
				"A": {"M1", "M1", "M1", "M2"},
				"B": {"M2"},
			},
		},
		BaseRules: model.BaseEventRules{
			model.EventTribe1st: 5,
			model.EventIndivWin: 10,
		},
		LeagueRules: model.LeagueRules{
			"r-castaway": {ID: "r-castaway", Points: 4, ReferenceType: model.RefCastaway, Kind: model.KindDirect},
			"r-tribe":    {ID: "r-tribe", Points: 2, ReferenceType: model.RefTribe, Kind: model.KindDirect},
			"r-predict":  {ID: "r-predict", Points: 6, ReferenceType: model.RefCastaway, Kind: model.KindPrediction},
		},
	}
}

func TestBaseEvents(t *testing.T) {
	Convey("Given a tribe of three castaways, two of them drafted", t, func() {
		in := eventSeason()
		compiler := scoring.NewCompiler(scoring.WithSurvivalCap(0))

		Convey("When the tribe wins a challenge", func() {
			in.Events = []model.BaseEvent{
				{Episode: 2, Name: model.EventTribe1st, ReferenceType: model.RefTribe, Tribes: []string{"Luvu"}},
			}
			res, err := compiler.Compile(in)
			So(err, ShouldBeNil)
			scores := res.Scores

			Convey("Then the tribe and every castaway on it score", func() {
				So(scores.At(model.BucketTribe, "Luvu", 2), ShouldEqual, 5)
				sum := 0
				for _, c := range []string{"A", "B", "C"} {
					sum += scores.At(model.BucketCastaway, c, 2)
				}
				So(sum, ShouldEqual, 5*3)
			})

			Convey("And only castaways with an owner forward points", func() {
				So(scores.At(model.BucketMember, "M1", 2), ShouldEqual, 5)
				So(scores.At(model.BucketMember, "M2", 2), ShouldEqual, 5)
				So(len(scores[model.BucketMember]), ShouldEqual, 2)
			})

			Convey("And every row covers the same episodes", func() {
				for _, b := range model.Buckets() {
					for _, row := range scores[b] {
						So(len(row), ShouldEqual, 3)
					}
				}
			})
		})

		Convey("When a castaway is listed on a tribe event as well", func() {
			in.Events = []model.BaseEvent{
				{Episode: 2, Name: model.EventTribe1st, ReferenceType: model.RefTribe, Tribes: []string{"Luvu"}, Castaways: []string{"A"}},
			}
			res, err := compiler.Compile(in)

			Convey("Then it is only credited once", func() {
				So(err, ShouldBeNil)
				So(res.Scores.At(model.BucketCastaway, "A", 2), ShouldEqual, 5)
			})
		})

		Convey("When tribe points do not flow to castaways", func() {
			in.Events = []model.BaseEvent{
				{Episode: 2, Name: model.EventTribe1st, ReferenceType: model.RefTribe, Tribes: []string{"Luvu"}, Castaways: []string{"B"}},
			}
			res, err := scoring.NewCompiler(scoring.WithTribePointsToCastaways(false)).Compile(in)

			Convey("Then only the tribe and explicitly listed castaways score", func() {
				So(err, ShouldBeNil)
				So(res.Scores.At(model.BucketTribe, "Luvu", 2), ShouldEqual, 5)
				So(res.Scores.At(model.BucketCastaway, "A", 2), ShouldEqual, 0)
				So(res.Scores.At(model.BucketCastaway, "B", 2), ShouldEqual, 5)
				So(res.Scores.At(model.BucketMember, "M2", 2), ShouldEqual, 5)
			})
		})

		Convey("When the owner changed before the event", func() {
			in.Events = []model.BaseEvent{
				{Episode: 3, Name: model.EventIndivWin, ReferenceType: model.RefCastaway, Castaways: []string{"A"}},
			}
			res, err := compiler.Compile(in)

			Convey("Then the owner at that episode gets the points", func() {
				So(err, ShouldBeNil)
				So(res.Scores.At(model.BucketMember, "M2", 3), ShouldEqual, 10)
				So(res.Scores.At(model.BucketMember, "M1", 3), ShouldEqual, 0)
			})
		})

		Convey("When an informational event has no rule", func() {
			in.Events = []model.BaseEvent{
				{Episode: 2, Name: model.EventTribeUpdate, ReferenceType: model.RefTribe, Tribes: []string{"Luvu"}},
			}
			res, err := compiler.Compile(in)

			Convey("Then it is skipped without points", func() {
				So(err, ShouldBeNil)
				So(res.Scores[model.BucketTribe], ShouldBeEmpty)
			})
		})

		Convey("When the input is malformed", func() {
			cases := []struct {
				ev   model.BaseEvent
				want error
			}{
				{model.BaseEvent{Episode: 1, Name: "immunityIdol", ReferenceType: model.RefCastaway}, scoring.ErrUnknownEvent},
				{model.BaseEvent{Episode: 1, Name: model.EventAdvFound, ReferenceType: model.RefCastaway}, scoring.ErrMissingRule},
				{model.BaseEvent{Episode: -1, Name: model.EventIndivWin, ReferenceType: model.RefCastaway}, scoring.ErrNegativeEpisode},
				{model.BaseEvent{Episode: 1, Name: model.EventIndivWin, ReferenceType: "Member"}, scoring.ErrUnknownReference},
			}

			Convey("Then compilation fails loudly", func() {
				for _, tc := range cases {
					in.Events = []model.BaseEvent{tc.ev}
					_, err := compiler.Compile(in)
					So(errors.Is(err, tc.want), ShouldBeTrue)
				}
			})
		})
	})
}

func TestLeagueEvents(t *testing.T) {
	Convey("Given league direct rules", t, func() {
		in := eventSeason()
		compiler := scoring.NewCompiler(scoring.WithSurvivalCap(0))

		Convey("When a castaway event is recorded", func() {
			in.LeagueEvents = []model.LeagueEvent{{Episode: 3, RuleID: "r-castaway", References: []string{"A"}}}
			res, err := compiler.Compile(in)

			Convey("Then the owner as of the previous episode gets the points", func() {
				So(err, ShouldBeNil)
				So(res.Scores.At(model.BucketCastaway, "A", 3), ShouldEqual, 4)
				So(res.Scores.At(model.BucketMember, "M1", 3), ShouldEqual, 4)
				So(res.Scores.At(model.BucketMember, "M2", 3), ShouldEqual, 0)
			})
		})

		Convey("When a tribe event is recorded", func() {
			in.LeagueEvents = []model.LeagueEvent{{Episode: 2, RuleID: "r-tribe", References: []string{"Luvu"}}}
			res, err := compiler.Compile(in)

			Convey("Then it reaches the tribe, its castaways and their owners", func() {
				So(err, ShouldBeNil)
				So(res.Scores.At(model.BucketTribe, "Luvu", 2), ShouldEqual, 2)
				So(res.Scores.At(model.BucketCastaway, "C", 2), ShouldEqual, 2)
				So(res.Scores.At(model.BucketMember, "M1", 2), ShouldEqual, 2)
				So(res.Scores.At(model.BucketMember, "M2", 2), ShouldEqual, 2)
			})
		})

		Convey("When the rule is missing or of the wrong kind", func() {
			in.LeagueEvents = []model.LeagueEvent{{Episode: 2, RuleID: "r-none"}}
			_, missing := compiler.Compile(in)
			in.LeagueEvents = []model.LeagueEvent{{Episode: 2, RuleID: "r-predict", References: []string{"A"}}}
			_, kind := compiler.Compile(in)

			Convey("Then compilation fails", func() {
				So(errors.Is(missing, scoring.ErrMissingRule), ShouldBeTrue)
				So(errors.Is(kind, scoring.ErrRuleKind), ShouldBeTrue)
			})
		})
	})
}

func TestExpandTribeEvents(t *testing.T) {
	Convey("Given a tribe event and a castaway event", t, func() {
		in := eventSeason()
		events := []model.BaseEvent{
			{Episode: 2, Name: model.EventTribeUpdate, ReferenceType: model.RefTribe, Tribes: []string{"Luvu"}, Castaways: []string{"C"}},
			{Episode: 2, Name: model.EventIndivWin, ReferenceType: model.RefCastaway, Castaways: []string{"B"}},
		}

		Convey("When expanding", func() {
			out, err := scoring.ExpandTribeEvents(events, in.Tribes, in.Eliminations)

			Convey("Then tribe events list the whole roster and inputs stay untouched", func() {
				So(err, ShouldBeNil)
				So(out[0].Castaways, ShouldResemble, []string{"C", "A", "B"})
				So(out[1].Castaways, ShouldResemble, []string{"B"})
				So(events[0].Castaways, ShouldResemble, []string{"C"})
			})
		})
	})
}
