package obs

import (
	"context"
	"log"
	"school-bus-routing/internal/metrics"
	"time"
)

type ctxKey string

const RunIDKey ctxKey = "run_id"

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func RunID(ctx context.Context) string {
	runID, _ := ctx.Value(RunIDKey).(string)
	return runID
}

// Time starts a stage timer; call the returned func with the stage's error
// to log the duration and record it in metrics.StageDuration.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	runID := RunID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			metrics.StageDuration.WithLabelValues(name, "error").Observe(dur.Seconds())
			log.Printf("run_id=%s op=%s dur=%dms err=%v", runID, name, dur.Milliseconds(), *errp)
			return
		}
		metrics.StageDuration.WithLabelValues(name, "ok").Observe(dur.Seconds())
		log.Printf("run_id=%s op=%s dur=%dms", runID, name, dur.Milliseconds())
	}
}
