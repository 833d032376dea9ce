package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/ctxutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/envutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

const tracerName = "github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/rag"

// Span attribute keys shared by the RAG pipeline.
const (
	AttrVideoID   = attribute.Key("video.id")
	AttrRequestID = attribute.Key("http.request_id")
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

// otelSettings is the exporter side of the OTEL_* environment.
type otelSettings struct {
	Endpoint    string
	Insecure    bool
	Headers     map[string]string
	SampleRatio float64
}

func otelSettingsFromEnv() otelSettings {
	return otelSettings{
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		Headers:     parseOTLPHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		SampleRatio: min(max(envutil.Float("OTEL_SAMPLER_RATIO", 0.1), 0), 1),
	}
}

var (
	otelOnce     sync.Once
	otelShutdown = func(context.Context) error { return nil }
)

// InitOTel installs a global tracer provider when OTEL_ENABLED is set and
// returns its shutdown func. Spans are no-ops otherwise.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !envutil.Bool("OTEL_ENABLED", false) {
			return
		}
		if log == nil {
			log = logger.NewNop()
		}
		settings := otelSettingsFromEnv()
		name := strings.TrimSpace(cfg.ServiceName)
		if name == "" {
			name = "video-chat"
		}

		res, err := resource.New(ctx, resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		))
		if err != nil {
			log.Warn("OTel resource incomplete", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(settings.SampleRatio))),
			sdktrace.WithResource(res),
		}
		if exp, err := newSpanExporter(ctx, settings); err != nil {
			log.Warn("OTel exporter unavailable, spans will be dropped", "error", err)
		} else {
			opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
		}

		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		otelShutdown = tp.Shutdown

		exporter := "stdout"
		if settings.Endpoint != "" {
			exporter = settings.Endpoint
		}
		log.Info("OTel tracing enabled", "service", name, "exporter", exporter, "sample_ratio", settings.SampleRatio)
	})
	return otelShutdown
}

// StartSpan starts a span on the pipeline tracer. The request and video ids
// carried by ctx are attached first so explicit attrs win.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	var base []attribute.KeyValue
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.RequestID != "" {
			base = append(base, AttrRequestID.String(td.RequestID))
		}
		if td.VideoID != "" {
			base = append(base, AttrVideoID.String(td.VideoID))
		}
	}
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(append(base, attrs...)...))
}

// EndSpan records err (if any) and ends span.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// parseOTLPHeaders reads "k1=v1,k2=v2"; malformed pairs are skipped.
func parseOTLPHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if ok && key != "" && val != "" {
			headers[key] = val
		}
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func newSpanExporter(ctx context.Context, s otelSettings) (sdktrace.SpanExporter, error) {
	if s.Endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.Endpoint)}
	if s.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(s.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(s.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}
