// Package metrics exposes Prometheus collectors for sends, renders and the
// HTTP surface, with decorators that feed them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/postmaster/pkg/mailer"
)

const namespace = "postmaster"

// Metrics groups the service collectors.
type Metrics struct {
	Sends        *prometheus.CounterVec
	SendDuration *prometheus.HistogramVec
	Renders      *prometheus.CounterVec
	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sends: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_sends_total",
			Help:      "Transport calls by transport and result.",
		}, []string{"transport", "result"}),
		SendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mail_send_duration_seconds",
			Help:      "Transport call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport"}),
		Renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_renders_total",
			Help:      "Render hook calls by part and result.",
		}, []string{"part", "result"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Sender counts calls to next under the transport label.
func (m *Metrics) Sender(next mailer.Sender, transport string) mailer.Sender {
	return mailer.SenderFunc(func(ctx context.Context, email *mailer.Email) (any, error) {
		start := time.Now()
		out, err := next.Send(ctx, email)
		m.SendDuration.WithLabelValues(transport).Observe(time.Since(start).Seconds())
		m.Sends.WithLabelValues(transport, result(err)).Inc()
		return out, err
	})
}

// Hook counts render hook answers.
func (m *Metrics) Hook(next mailer.RenderHook) mailer.RenderHook {
	return mailer.RenderHookFunc(func(ctx context.Context, req mailer.RenderRequest) (*mailer.RenderResult, error) {
		res, err := next.Render(ctx, req)
		outcome := "ok"
		switch {
		case err != nil:
			outcome = result(err)
		case res == nil:
			outcome = "absent"
		case res.Failed:
			outcome = "failed"
		}
		m.Renders.WithLabelValues(req.Part, outcome).Inc()
		return res, err
	})
}

// Middleware records HTTP metrics labelled with the matched chi route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.Latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}
