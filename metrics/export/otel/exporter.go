package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goBoard "github.com/MrEthical07/goBoard"
	"github.com/MrEthical07/goBoard/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goBoard.MetricsSnapshot
	AuditDropped() uint64
}

// series is one attribute combination of an instrument, read from one counter.
type series struct {
	id    goBoard.MetricID
	attrs attribute.Set
}

type label struct {
	value string
	id    goBoard.MetricID
}

func labelled(key string, labels ...label) []series {
	out := make([]series, 0, len(labels))
	for _, l := range labels {
		out = append(out, series{id: l.id, attrs: attribute.NewSet(attribute.String(key, l.value))})
	}
	return out
}

// family is one OTel counter. Counters that partition a single event (guard outcome,
// restore outcome, session transition) share a family and differ by attribute.
type family struct {
	name   string
	help   string
	series []series
}

var families = []family{
	{
		name: "goboard_session_restores_total",
		help: "Browser-context restores by outcome.",
		series: labelled("outcome",
			label{"hydrated", goBoard.MetricSessionRestored},
			label{"empty", goBoard.MetricSessionRestoreEmpty},
			label{"malformed", goBoard.MetricSessionRestoreMalformed},
			label{"expired", goBoard.MetricSessionRestoreExpired},
		),
	},
	{
		name: "goboard_session_transitions_total",
		help: "Session changes by reason.",
		series: labelled("reason",
			label{"login", goBoard.MetricSessionLogin},
			label{"update", goBoard.MetricSessionUpdate},
			label{"logout", goBoard.MetricSessionLogout},
			label{"expired", goBoard.MetricSessionExpired},
		),
	},
	{
		name: "goboard_guard_decisions_total",
		help: "Guard decisions by state.",
		series: labelled("state",
			label{"granted", goBoard.MetricGuardGranted},
			label{"checking", goBoard.MetricGuardChecking},
			label{"denied-anonymous", goBoard.MetricGuardDeniedAnonymous},
			label{"denied-wrong-role", goBoard.MetricGuardDeniedWrongRole},
		),
	},
	{
		name:   "goboard_api_requests_total",
		help:   "Backend API calls.",
		series: []series{{id: goBoard.MetricAPIRequest, attrs: attribute.NewSet()}},
	},
	{
		name:   "goboard_storage_failures_total",
		help:   "Durable storage errors.",
		series: []series{{id: goBoard.MetricStorageFailure, attrs: attribute.NewSet()}},
	},
	{
		name:   "goboard_login_throttled_total",
		help:   "Sign-in attempts refused after repeated failures.",
		series: []series{{id: goBoard.MetricLoginThrottled, attrs: attribute.NewSet()}},
	},
}

var (
	failureOther        = attribute.NewSet(attribute.String("kind", "other"))
	failureUnauthorized = attribute.NewSet(attribute.String("kind", "unauthorized"))
)

type observedFamily struct {
	family
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      goBoard.MetricID
	buckets metric.Int64ObservableGauge
	bounds  []attribute.Set
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes goBoard metrics as OTel observable instruments.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	families     []observedFamily
	apiFailures  metric.Int64ObservableCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter that read engine at collection time.
func NewOTelExporter(meter metric.Meter, engine *goBoard.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, f := range families {
		ins, err := meter.Int64ObservableCounter(f.name, metric.WithDescription(f.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", f.name, err)
		}
		e.families = append(e.families, observedFamily{family: f, instrument: ins})
		observables = append(observables, ins)
	}

	failures, err := meter.Int64ObservableCounter("goboard_api_failures_total",
		metric.WithDescription("Failed backend API calls by kind."))
	if err != nil {
		return nil, fmt.Errorf("create api failure counter: %w", err)
	}
	e.apiFailures = failures
	observables = append(observables, failures)

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		h.buckets, err = meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative bucket counts by upper bound."))
		if err != nil {
			return nil, fmt.Errorf("create histogram buckets %s: %w", def.Name, err)
		}
		for _, b := range internaldefs.HistogramBounds {
			h.bounds = append(h.bounds, attribute.NewSet(attribute.String("le", strconv.FormatFloat(b, 'g', -1, 64))))
		}
		h.bounds = append(h.bounds, attribute.NewSet(attribute.String("le", "+Inf")))

		h.count, err = meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count %s: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, h)
		observables = append(observables, h.buckets, h.count)
	}

	e.auditDropped, err = meter.Int64ObservableCounter("goboard_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, f := range e.families {
		for _, s := range f.series {
			o.ObserveInt64(f.instrument, int64(snap.Counters[s.id]), metric.WithAttributeSet(s.attrs))
		}
	}

	failed := snap.Counters[goBoard.MetricAPIFailure]
	unauthorized := snap.Counters[goBoard.MetricAPIUnauthorized]
	if unauthorized > failed {
		unauthorized = failed
	}
	o.ObserveInt64(e.apiFailures, int64(unauthorized), metric.WithAttributeSet(failureUnauthorized))
	o.ObserveInt64(e.apiFailures, int64(failed-unauthorized), metric.WithAttributeSet(failureOther))

	for _, h := range e.histograms {
		raw, ok := snap.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, attrs := range h.bounds {
			o.ObserveInt64(h.buckets, int64(cumulative[i]), metric.WithAttributeSet(attrs))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
