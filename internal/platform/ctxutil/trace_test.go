package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestWithVideoIDCopiesTraceData(t *testing.T) {
	parent := WithTraceData(context.Background(), &TraceData{TraceID: "t1", RequestID: "r1"})
	child := WithVideoID(parent, "vid12345678")

	if got := GetTraceData(child); got == nil || got.TraceID != "t1" || got.VideoID != "vid12345678" {
		t.Fatalf("WithVideoID: unexpected trace data %+v", got)
	}
	if GetTraceData(parent).VideoID != "" {
		t.Fatalf("WithVideoID: parent trace data was mutated")
	}
}

func TestFields(t *testing.T) {
	if f := Fields(context.Background()); f != nil {
		t.Fatalf("Fields: expected nil without trace data, got=%v", f)
	}
	ctx := WithVideoID(WithTraceData(context.Background(), &TraceData{RequestID: "r1"}), "v")
	f := Fields(ctx)
	if len(f) != 4 || f[0] != "request_id" || f[2] != "video_id" || f[3] != "v" {
		t.Fatalf("Fields: unexpected %v", f)
	}
}

func TestDetachDropsDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	ctx = WithVideoID(ctx, "v")
	cancel()

	out := Detach(ctx)
	if out.Err() != nil {
		t.Fatalf("Detach: expected live context, got=%v", out.Err())
	}
	if _, ok := out.Deadline(); ok {
		t.Fatalf("Detach: expected no deadline")
	}
	if td := GetTraceData(out); td == nil || td.VideoID != "v" {
		t.Fatalf("Detach: expected trace data carried, got=%+v", td)
	}
}
