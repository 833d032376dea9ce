package ctxutil

import "context"

type traceDataKey struct{}

// TraceData follows one request through handlers, services and the
// background indexer. VideoID is filled once the route names a video.
type TraceData struct {
	TraceID   string
	RequestID string
	VideoID   string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// WithVideoID returns a context whose trace data names videoID. The parent's
// trace data is copied, not mutated.
func WithVideoID(ctx context.Context, videoID string) context.Context {
	next := TraceData{VideoID: videoID}
	if td := GetTraceData(ctx); td != nil {
		next = *td
		next.VideoID = videoID
	}
	return WithTraceData(ctx, &next)
}

// Fields renders the trace data as logger key/value pairs.
func Fields(ctx context.Context) []any {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	out := make([]any, 0, 6)
	if td.TraceID != "" {
		out = append(out, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		out = append(out, "request_id", td.RequestID)
	}
	if td.VideoID != "" {
		out = append(out, "video_id", td.VideoID)
	}
	return out
}

// Detach keeps ctx's trace data but drops its deadline and cancellation.
// Used when handing work to the background queue.
func Detach(ctx context.Context) context.Context {
	out := context.Background()
	if td := GetTraceData(ctx); td != nil {
		out = WithTraceData(out, td)
	}
	return out
}
