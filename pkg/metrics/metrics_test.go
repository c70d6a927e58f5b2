package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered returns the summed counter/gauge value, or histogram sample count, of a family.
func gathered(registry *prometheus.Registry, name string) float64 {
	families, err := registry.Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				total += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("engine"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				manager.RecordRep(80)
				So(manager.Registry(), ShouldEqual, registry)
				So(gathered(registry, "test_engine_reps_total"), ShouldEqual, 1)
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "repsense")
				So(manager.subsystem, ShouldEqual, "detection")
				So(manager.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
			})
		})

		Convey("When two managers use default registries", func() {
			Convey("Then they do not collide", func() {
				So(func() {
					NewManager()
					NewManager()
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		manager := NewManager()
		registry := manager.Registry()

		Convey("When frames are recorded", func() {
			So(manager.RecordFrame(FrameDetected, 2*time.Millisecond), ShouldBeNil)
			So(manager.RecordFrame(FrameDetected, time.Millisecond), ShouldBeNil)
			So(manager.RecordFrame(FrameNoDetection, time.Millisecond), ShouldBeNil)

			Convey("Then the counter and latency histogram advance", func() {
				So(gathered(registry, "repsense_detection_frames_processed_total"), ShouldEqual, 3)
				So(gathered(registry, "repsense_detection_frame_latency_milliseconds"), ShouldEqual, 3)
			})
		})

		Convey("When an unknown frame result is recorded", func() {
			err := manager.RecordFrame(FrameResult("bogus"), time.Millisecond)

			Convey("Then ErrUnknownResult is returned", func() {
				So(errors.Is(err, ErrUnknownResult), ShouldBeTrue)
				So(gathered(registry, "repsense_detection_frames_processed_total"), ShouldEqual, 0)
			})
		})

		Convey("When a session starts and finishes", func() {
			manager.SessionStarted()
			So(gathered(registry, "repsense_session_active"), ShouldEqual, 1)
			manager.SessionFinished(90 * time.Second)

			Convey("Then the gauge returns to zero", func() {
				So(gathered(registry, "repsense_session_active"), ShouldEqual, 0)
				So(gathered(registry, "repsense_session_finished_total"), ShouldEqual, 1)
				So(gathered(registry, "repsense_session_duration_seconds"), ShouldEqual, 1)
			})
		})

		Convey("When HTTP requests and errors are recorded", func() {
			manager.RecordHTTPRequest("/api/session", http.MethodGet, http.StatusOK)
			manager.RecordError("store", "save_session")

			Convey("Then both counters advance", func() {
				So(gathered(registry, "repsense_http_requests_total"), ShouldEqual, 1)
				So(gathered(registry, "repsense_errors_by_component_total"), ShouldEqual, 1)
			})
		})
	})
}

func TestDisabledAndNilManager(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		manager := NewManager(WithMetricsEnabled(false))

		Convey("When recording", func() {
			manager.RecordRep(90)
			manager.SessionStarted()

			Convey("Then nothing is collected", func() {
				So(gathered(manager.Registry(), "repsense_detection_reps_total"), ShouldEqual, 0)
				So(gathered(manager.Registry(), "repsense_session_active"), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a nil manager", t, func() {
		var manager *Manager

		Convey("Then every recorder is a no-op", func() {
			So(func() {
				manager.RecordRep(50)
				manager.SessionStarted()
				manager.SessionFinished(time.Second)
				manager.RecordHTTPRequest("/", http.MethodGet, http.StatusOK)
				manager.RecordError("engine", "panic")
				_ = manager.RecordFrame(FrameError, time.Millisecond)
			}, ShouldNotPanic)
		})
	})
}

func TestHandler(t *testing.T) {
	Convey("Given a manager with a recorded rep", t, func() {
		manager := NewManager()
		manager.RecordRep(75)

		Convey("When /metrics is scraped", func() {
			rec := httptest.NewRecorder()
			manager.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then the exposition contains the rep counter", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(rec.Body.String(), "repsense_detection_reps_total 1"), ShouldBeTrue)
			})
		})
	})
}
