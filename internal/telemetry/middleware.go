package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// HTTPInstrumentationName names the HTTP tracer and meter
const HTTPInstrumentationName = "github.com/stacklok/toolhive-content-sync/http"

// unknownRoute keeps unmatched paths out of metric labels and span names
const unknownRoute = "unknown_route"

// Middleware returns HTTP middleware that traces each request and records
// request duration and count. Nil providers disable the respective part.
func Middleware(tp trace.TracerProvider, mp metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	var (
		tracer          trace.Tracer
		requestDuration metric.Float64Histogram
		requestsTotal   metric.Int64Counter
	)

	if tp != nil {
		tracer = tp.Tracer(HTTPInstrumentationName)
	}

	if mp != nil {
		meter := mp.Meter(HTTPInstrumentationName)

		var err error
		requestDuration, err = meter.Float64Histogram(
			"thv_content_sync_http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 60),
		)
		if err != nil {
			return nil, err
		}

		requestsTotal, err = meter.Int64Counter(
			"thv_content_sync_http_requests_total",
			metric.WithDescription("Total number of HTTP requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			return nil, err
		}
	}

	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		if tracer == nil && requestDuration == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			var span trace.Span
			if tracer != nil {
				ctx = propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
				ctx, span = tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
					trace.WithSpanKind(trace.SpanKindServer),
					trace.WithAttributes(
						semconv.HTTPRequestMethodKey.String(r.Method),
						semconv.URLPath(r.URL.Path),
					),
				)
				defer span.End()
			}

			next.ServeHTTP(ww, r.WithContext(ctx))

			// The chi route pattern is only known once routing has completed
			route := routePattern(r)
			status := ww.Status()

			if span != nil {
				span.SetName(fmt.Sprintf("%s %s", r.Method, route))
				span.SetAttributes(
					semconv.HTTPRouteKey.String(route),
					semconv.HTTPResponseStatusCode(status),
				)
				if status >= http.StatusBadRequest {
					span.SetStatus(codes.Error, http.StatusText(status))
				}
			}

			if requestDuration != nil {
				attrs := metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
					attribute.String("status_code", strconv.Itoa(status)),
				)
				requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
				requestsTotal.Add(ctx, 1, attrs)
			}
		})
	}, nil
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unknownRoute
}
