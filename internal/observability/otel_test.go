package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/ctxutil"
)

func TestParseOTLPHeaders(t *testing.T) {
	got := parseOTLPHeaders(" x-api-key = abc ,broken, =v,k= ,auth=Bearer a=b")
	if len(got) != 2 || got["x-api-key"] != "abc" || got["auth"] != "Bearer a=b" {
		t.Fatalf("parseOTLPHeaders: unexpected %v", got)
	}
	if parseOTLPHeaders("") != nil {
		t.Fatalf("parseOTLPHeaders: expected nil for empty input")
	}
}

func TestStartSpanCarriesTraceData(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := ctxutil.WithVideoID(ctxutil.WithTraceData(context.Background(), &ctxutil.TraceData{RequestID: "r1"}), "vid12345678")
	_, span := StartSpan(ctx, "rag.test", AttrVideoID.String("override"))
	EndSpan(span, errors.New("boom"))

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("StartSpan: expected 1 span, got=%d", len(ended))
	}
	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["http.request_id"] != "r1" || attrs["video.id"] != "override" {
		t.Fatalf("StartSpan: unexpected attributes %v", attrs)
	}
	if ended[0].Status().Code != codes.Error {
		t.Fatalf("EndSpan: expected error status, got=%v", ended[0].Status())
	}
}
