package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/tribescore/internal/adapters/repository"
	service "github.com/okian/tribescore/internal/app"
	"github.com/okian/tribescore/internal/domain/model"
	"github.com/okian/tribescore/internal/domain/scoring"
	"github.com/okian/tribescore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func winInput(league string) model.Input {
	return model.Input{
		LeagueID: league,
		Events: []model.BaseEvent{
			{Episode: 1, Name: model.EventIndivWin, ReferenceType: model.RefCastaway, Castaways: []string{"A"}},
			{Episode: 2, Name: model.EventIndivWin, ReferenceType: model.RefCastaway, Castaways: []string{"B"}},
		},
		BaseRules: model.BaseEventRules{model.EventIndivWin: 5},
		Selections: model.SelectionTimeline{
			CastawayMembers: map[string][]string{"A": {"M1"}, "B": {"M2"}},
			MemberCastaways: map[string][]string{"M1": {"A"}, "M2": {"B"}},
		},
		Eliminations: model.Eliminations{nil, nil, nil},
	}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(8))

		Convey("When it has not been started", func() {
			_, err := svc.Submit(ctx, "", winInput("l1"))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.Standings(ctx, "l1", repository.LatestEpisode, 10)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats, ShouldNotContainKey, "leagues")
		})

		Convey("When started twice and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestServiceForcedStop(t *testing.T) {
	Convey("Given one worker with a backlog of leagues", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1), service.WithLogger(logger.Nop()))
		So(svc.Start(ctx), ShouldBeNil)

		ids := make([]string, 0, 200)
		for range 200 {
			id, err := svc.Submit(ctx, "", winInput("l1"))
			So(err, ShouldBeNil)
			ids = append(ids, id)
		}

		Convey("When Stop is called with an expired deadline", func() {
			expired, cancel := context.WithTimeout(ctx, -time.Second)
			defer cancel()
			start := time.Now()
			_ = svc.Stop(expired)
			So(time.Since(start), ShouldBeLessThan, time.Second)

			Convey("Then every job still finishes, ran or failed", func() {
				wctx, wcancel := context.WithTimeout(ctx, 3*time.Second)
				defer wcancel()
				for _, id := range ids {
					st, err := svc.Wait(wctx, id)
					So(err, ShouldBeNil)
					So(st.State, ShouldNotEqual, service.JobQueued)
					if st.State == service.JobFailed {
						So(st.Error, ShouldContainSubstring, "stopped before job ran")
					}
				}
			})
		})
	})
}

func TestServiceSubmit(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithLogger(logger.Nop()),
			service.WithCompilerOptions(scoring.WithSurvivalCap(0)),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a league is submitted and awaited", func() {
			id, err := svc.Submit(ctx, "req-1", winInput("l1"))
			So(err, ShouldBeNil)
			So(id, ShouldNotBeEmpty)

			st, err := svc.Wait(ctx, id)
			So(err, ShouldBeNil)

			Convey("Then the job is done and standings are served", func() {
				So(st.State, ShouldEqual, service.JobDone)
				So(st.LeagueID, ShouldEqual, "l1")
				So(st.FinishedAt.IsZero(), ShouldBeFalse)

				standing, err := svc.Standings(ctx, "l1", repository.LatestEpisode, 10)
				So(err, ShouldBeNil)
				So(standing.Entries, ShouldHaveLength, 2)
				So(standing.Entries[0].Score, ShouldEqual, 5)

				entry, err := svc.Rank(ctx, "l1", "M2")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 1)

				scores, err := svc.Scores(ctx, "l1")
				So(err, ShouldBeNil)
				So(scores[model.BucketCastaway]["A"], ShouldResemble, []int{0, 5, 5})
			})

			Convey("Then repeating the request key is rejected", func() {
				_, err := svc.Submit(ctx, "req-1", winInput("l1"))
				So(errors.Is(err, service.ErrDuplicate), ShouldBeTrue)
			})

			Convey("Then an empty request key is never deduped", func() {
				a, err := svc.Submit(ctx, "", winInput("l1"))
				So(err, ShouldBeNil)
				b, err := svc.Submit(ctx, "", winInput("l1"))
				So(err, ShouldBeNil)
				So(a, ShouldNotEqual, b)
			})

			Convey("Then a wager is checked against the compiled table", func() {
				So(svc.CheckWager(ctx, "l1", "M1", 3, 0, 5), ShouldBeNil)
				err := svc.CheckWager(ctx, "l1", "M1", 3, 2, 5)
				So(errors.Is(err, scoring.ErrInsufficientBalance), ShouldBeTrue)
			})

			Convey("Then stats report the league and job", func() {
				stats := svc.GetStats()
				So(stats["leagues"], ShouldEqual, 1)
				jobs, ok := stats["jobs"].(map[service.JobState]int)
				So(ok, ShouldBeTrue)
				So(jobs[service.JobDone], ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When a league fails to compile", func() {
			in := winInput("bad")
			in.Events = append(in.Events, model.BaseEvent{Episode: 1, Name: model.EventFireWin, ReferenceType: model.RefCastaway, Castaways: []string{"A"}})
			id, err := svc.Submit(ctx, "", in)
			So(err, ShouldBeNil)

			st, err := svc.Wait(ctx, id)
			So(err, ShouldBeNil)

			Convey("Then the job reports the rule error and nothing is stored", func() {
				So(st.State, ShouldEqual, service.JobFailed)
				So(st.Error, ShouldContainSubstring, "rule")
				_, err := svc.Scores(ctx, "bad")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the input has no league id", func() {
			_, err := svc.Submit(ctx, "k", model.Input{})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When an unknown job is looked up", func() {
			_, err := svc.Job(ctx, "nope")
			So(errors.Is(err, service.ErrJobNotFound), ShouldBeTrue)
			_, err = svc.Wait(ctx, "nope")
			So(errors.Is(err, service.ErrJobNotFound), ShouldBeTrue)
		})
	})
}

func TestServiceCompile(t *testing.T) {
	Convey("Given a service configured without survival bonuses", t, func() {
		svc := service.New(service.WithCompilerOptions(scoring.WithSurvivalCap(0)))

		Convey("When compiling synchronously", func() {
			res, err := svc.Compile(context.Background(), winInput("sync"))

			Convey("Then the result is returned without being stored", func() {
				So(err, ShouldBeNil)
				So(res.Scores[model.BucketMember]["M1"], ShouldResemble, []int{0, 5, 5})
				So(svc.GetStats()["survivalCap"], ShouldEqual, 0)
			})
		})

		Convey("When compiling invalid input", func() {
			in := winInput("sync")
			in.Events[0].Episode = -1
			_, err := svc.Compile(context.Background(), in)
			So(errors.Is(err, scoring.ErrNegativeEpisode), ShouldBeTrue)
		})
	})
}
