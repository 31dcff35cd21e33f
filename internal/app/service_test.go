package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/victorbjor/security-bot/internal/domain/model"
	"github.com/victorbjor/security-bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubDecider struct{}

func (stubDecider) Decide(_ context.Context, _ []byte) (model.Decision, error) {
	return model.Decision{
		Summary: "test summary",
		Level:   model.LevelLog,
		Reason:  "test reason",
	}, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []model.VerdictEvent
}

func (s *captureSink) Publish(_ context.Context, event model.VerdictEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func detectionAt(score float64, at time.Time) model.Detection {
	return model.Detection{
		Image:      []byte{0xFF, 0xD8, byte(at.UnixNano()), byte(at.UnixNano() >> 8), 0xFF, 0xD9},
		Score:      score,
		CapturedAt: at,
	}
}

func frameAt(at time.Time, scores ...float64) model.Frame {
	detections := make([]model.Detection, 0, len(scores))
	for _, score := range scores {
		detections = append(detections, detectionAt(score, at))
	}
	return model.Frame{Detections: detections, CapturedAt: at}
}

func newTestService(t *testing.T, sink *captureSink, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithDataDir(t.TempDir()),
		WithDecider(stubDecider{}),
		WithSink(sink),
		WithBaselineSeed(0.5, 0.01),
		WithZCutoff(2.0),
	}
	svc := New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStartRequiresCollaborators(t *testing.T) {
	svc := New(WithDataDir(t.TempDir()))
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("Start without decider and sink succeeded")
	}
}

func TestAnomalyFlowsToLeaderboardAndVerdict(t *testing.T) {
	sink := &captureSink{}
	svc := newTestService(t, sink)

	ctx := context.Background()
	now := time.Now()

	// Background traffic near the seeded mean is board material (the nice
	// board ranks by score alone) but never escalates.
	svc.ProcessFrame(ctx, frameAt(now, 0.5, 0.51, 0.49))
	nice, threat := svc.Snapshot(ctx)
	if len(nice) != 1 || len(threat) != 1 {
		t.Fatalf("background frame boards: nice=%d threat=%d, want 1/1", len(nice), len(threat))
	}
	if sink.count() != 0 {
		t.Fatalf("background scores escalated: %d verdicts", sink.count())
	}

	// Past the cooldown an outlier tops the threat board and produces a
	// verdict.
	svc.ProcessFrame(ctx, frameAt(now.Add(6*time.Second), 0.95))

	nice, threat = svc.Snapshot(ctx)
	if len(threat) != 2 || len(nice) != 2 {
		t.Fatalf("anomaly missing from boards: nice=%d threat=%d", len(nice), len(threat))
	}
	if threat[0].Score != 0.95 {
		t.Fatalf("top threat score = %v, want 0.95", threat[0].Score)
	}
	if nice[0].Score != 0.5 {
		t.Fatalf("top nice score = %v, want 0.5", nice[0].Score)
	}
	if threat[0].Name != "Unknown" {
		t.Fatalf("default name = %q, want Unknown", threat[0].Name)
	}

	waitFor(t, func() bool { return sink.count() == 1 })
}

func TestDebounceSuppressesRapidAnomalies(t *testing.T) {
	sink := &captureSink{}
	svc := newTestService(t, sink,
		WithLeaderboardCooldown(5*time.Second),
		WithEscalationCooldown(5*time.Second),
	)

	ctx := context.Background()
	now := time.Now()

	// Three anomalies one second apart: only the first clears the gates.
	for i := 0; i < 3; i++ {
		svc.ProcessFrame(ctx, frameAt(now.Add(time.Duration(i)*time.Second), 0.95))
	}

	_, threat := svc.Snapshot(ctx)
	if len(threat) != 1 {
		t.Fatalf("threat entries = %d, want 1", len(threat))
	}
	waitFor(t, func() bool { return sink.count() == 1 })

	// Past the cooldown the next anomaly flows again.
	svc.ProcessFrame(ctx, frameAt(now.Add(10*time.Second), 0.96))
	_, threat = svc.Snapshot(ctx)
	if len(threat) != 2 {
		t.Fatalf("threat entries after cooldown = %d, want 2", len(threat))
	}
	waitFor(t, func() bool { return sink.count() == 2 })
}

func TestIndependentDebounceClocks(t *testing.T) {
	sink := &captureSink{}
	svc := newTestService(t, sink,
		WithLeaderboardCooldown(time.Hour),
		WithEscalationCooldown(time.Millisecond),
	)

	ctx := context.Background()
	now := time.Now()
	svc.ProcessFrame(ctx, frameAt(now, 0.95))
	svc.ProcessFrame(ctx, frameAt(now.Add(time.Second), 0.96))

	// The leaderboard clock blocks the second anomaly, the escalation clock
	// does not.
	_, threat := svc.Snapshot(ctx)
	if len(threat) != 1 {
		t.Fatalf("threat entries = %d, want 1", len(threat))
	}
	waitFor(t, func() bool { return sink.count() == 2 })
}

func TestRenameThroughService(t *testing.T) {
	sink := &captureSink{}
	svc := newTestService(t, sink)

	ctx := context.Background()
	svc.ProcessFrame(ctx, frameAt(time.Now(), 0.95))

	_, threat := svc.Snapshot(ctx)
	if len(threat) != 1 {
		t.Fatalf("threat entries = %d, want 1", len(threat))
	}

	ok, err := svc.Rename(ctx, threat[0].ID, "Mallory")
	if err != nil || !ok {
		t.Fatalf("Rename = (%v, %v)", ok, err)
	}
	_, threat = svc.Snapshot(ctx)
	if threat[0].Name != "Mallory" {
		t.Fatalf("name = %q, want Mallory", threat[0].Name)
	}
}

func TestGetStats(t *testing.T) {
	sink := &captureSink{}
	svc := newTestService(t, sink)

	svc.ProcessFrame(context.Background(), frameAt(time.Now(), 0.5))

	stats := svc.GetStats()
	if stats["started"] != true {
		t.Fatalf("stats.started = %v", stats["started"])
	}
	if stats["frames_ingested"] != int64(1) {
		t.Fatalf("frames_ingested = %v, want 1", stats["frames_ingested"])
	}
	if _, ok := stats["baseline_mean"]; !ok {
		t.Fatal("stats missing baseline_mean")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sink := &captureSink{}
	svc := newTestService(t, sink)
	svc.Stop()
	svc.Stop()
}
