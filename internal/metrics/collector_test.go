package metrics

import (
	"testing"
	"time"
)

func TestCollector(t *testing.T) {
	t.Run("empty collector snapshots nil operations", func(t *testing.T) {
		snap := NewCollector().Snapshot()
		if snap.Body != nil || snap.BodyDiff != nil || snap.Write != nil {
			t.Errorf("expected nil operation snapshots, got %+v", snap)
		}
	})

	t.Run("backend usage aggregates", func(t *testing.T) {
		c := NewCollector()
		c.RecordBackendUsage(OpBody, 100*time.Millisecond, 200, 80)
		c.RecordBackendUsage(OpBody, 300*time.Millisecond, 400, 120)

		snap := c.Snapshot()
		body := snap.Body
		if body == nil {
			t.Fatal("body snapshot missing")
		}
		if body.Count != 2 || body.TotalTimeMs != 400 {
			t.Errorf("count/time = %d/%d", body.Count, body.TotalTimeMs)
		}
		if body.MinTimeMs != 100 || body.MaxTimeMs != 300 {
			t.Errorf("min/max = %d/%d", body.MinTimeMs, body.MaxTimeMs)
		}
		if *body.TotalInputTokens != 600 || *body.TotalOutputTokens != 200 {
			t.Errorf("tokens = %d/%d", *body.TotalInputTokens, *body.TotalOutputTokens)
		}
		if *body.AvgInputTokens != 300 {
			t.Errorf("avg input = %g", *body.AvgInputTokens)
		}
	})

	t.Run("timing only operation has no token stats", func(t *testing.T) {
		c := NewCollector()
		c.RecordTiming(OpWrite, 5*time.Millisecond)

		snap := c.Snapshot()
		if snap.Write == nil || snap.Write.Count != 1 {
			t.Fatalf("write snapshot = %+v", snap.Write)
		}
		if snap.Write.TotalInputTokens != nil {
			t.Error("write must not carry token stats")
		}
	})
}
