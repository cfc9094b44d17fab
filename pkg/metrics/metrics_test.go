package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func gathered(reg *prometheus.Registry, name string) []*dto.Metric {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()
		}
	}
	return nil
}

func TestManager(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(reg),
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithConstLabels(map[string]string{"env": "test"}),
		)

		Convey("When a compilation is recorded", func() {
			m.RecordCompilation(3*time.Millisecond, map[string]int{"Member": 4, "Tribe": 2})
			m.RecordCompileError(KindRule)

			Convey("Then counters, histograms and gauges move", func() {
				So(gathered(reg, "test_unit_compilations_total")[0].GetCounter().GetValue(), ShouldEqual, 1)
				So(gathered(reg, "test_unit_compile_latency_milliseconds")[0].GetHistogram().GetSampleCount(), ShouldEqual, 1)
				So(gathered(reg, "test_unit_compiled_entities"), ShouldHaveLength, 2)
				So(gathered(reg, "test_unit_compile_errors_total")[0].GetCounter().GetValue(), ShouldEqual, 1)
			})

			Convey("And constant labels are attached", func() {
				labels := gathered(reg, "test_unit_compilations_total")[0].GetLabel()
				So(labels[0].GetName(), ShouldEqual, "env")
				So(labels[0].GetValue(), ShouldEqual, "test")
			})
		})

		Convey("When runtime stats are collected", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := m.CollectSystem(ctx)

			Convey("Then one sample is taken before returning", func() {
				So(err, ShouldEqual, context.Canceled)
				So(gathered(reg, "test_unit_system_goroutines")[0].GetGauge().GetValue(), ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given a disabled manager", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(reg), WithMetricsEnabled(false))
		m.RecordCompilation(time.Millisecond, nil)

		Convey("Then nothing is recorded", func() {
			So(gathered(reg, "tribescore_compiler_compilations_total")[0].GetCounter().GetValue(), ShouldEqual, 0)
			So(m.CollectSystem(context.Background()), ShouldEqual, ErrDisabled)
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Convey("When every recorder is called", func() {
			So(func() {
				RecordCompilation(time.Millisecond, map[string]int{"Castaway": 1})
				RecordCompileError(KindValidation)
				RecordJobDuplicate()
				RecordStandingsUpdate()
				UpdateLeaguesTracked(2)
				RecordStandingsQueryLatency(time.Microsecond)
				UpdateQueueSize(1)
				UpdateQueueCapacity(8)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueWait(time.Millisecond)
				UpdateWorkerCount(2)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerProcessingLatency(time.Millisecond)
				RecordWorkerError()
				RecordHTTPRequest("/stats", "GET", "200", time.Millisecond)
				RecordErrorByComponent("worker", KindInternal)
			}, ShouldNotPanic)

			Convey("Then the registry exposes them", func() {
				So(gathered(GetRegistry(), "tribescore_compiler_leagues_tracked")[0].GetGauge().GetValue(), ShouldEqual, 2)
				So(gathered(GetRegistry(), "tribescore_compiler_queue_capacity")[0].GetGauge().GetValue(), ShouldEqual, 8)
			})
		})
	})
}
