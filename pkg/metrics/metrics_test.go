package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewManagerWithOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithNamespace("testns"),
		WithSubsystem("testsub"),
		WithPrometheusRegistry(reg),
		WithHistogramBuckets([]float64{1, 5, 10}),
	)
	if m == nil {
		t.Fatal("expected manager to be created")
	}
	if m.namespace != "testns" || m.subsystem != "testsub" {
		t.Errorf("options not applied: %s/%s", m.namespace, m.subsystem)
	}
}

func TestPipelineCounters(t *testing.T) {
	before := testutil.ToFloat64(globalManager.framesProcessed)
	RecordFrameProcessed()
	after := testutil.ToFloat64(globalManager.framesProcessed)
	if after != before+1 {
		t.Errorf("expected frames counter to increment, got %f -> %f", before, after)
	}

	before = testutil.ToFloat64(globalManager.anomaliesFlagged)
	RecordAnomalyFlagged()
	if got := testutil.ToFloat64(globalManager.anomaliesFlagged); got != before+1 {
		t.Errorf("expected anomaly counter to increment, got %f", got)
	}
}

func TestBaselineGauges(t *testing.T) {
	UpdateBaseline(0.5, 0.01)
	if got := testutil.ToFloat64(globalManager.baselineMean); got != 0.5 {
		t.Errorf("expected mean gauge 0.5, got %f", got)
	}
	if got := testutil.ToFloat64(globalManager.baselineVariance); got != 0.01 {
		t.Errorf("expected variance gauge 0.01, got %f", got)
	}
}

func TestQueueMetrics(t *testing.T) {
	UpdateQueueCapacity(64)
	UpdateQueueSize(8)
	UpdateQueueUtilization(0.125)

	if got := testutil.ToFloat64(globalManager.queueCapacity); got != 64 {
		t.Errorf("expected capacity 64, got %f", got)
	}
	if got := testutil.ToFloat64(globalManager.queueSize); got != 8 {
		t.Errorf("expected size 8, got %f", got)
	}

	before := testutil.ToFloat64(globalManager.queueRejected)
	RecordQueueRejected()
	if got := testutil.ToFloat64(globalManager.queueRejected); got != before+1 {
		t.Errorf("expected rejected counter to increment, got %f", got)
	}
}

func TestLeaderboardMetrics(t *testing.T) {
	RecordLeaderboardInsert("threat")
	RecordLeaderboardInsert("nice")
	UpdateLeaderboardSize("threat", 5)
	RecordLeaderboardSave()
	RecordLeaderboardSaveError()
	RecordLeaderboardRename()

	if got := testutil.ToFloat64(globalManager.leaderboardSize.WithLabelValues("threat")); got != 5 {
		t.Errorf("expected threat board size 5, got %f", got)
	}
}

func TestRegistryServesMetrics(t *testing.T) {
	RecordDetectionScored()

	families, err := GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if strings.Contains(f.GetName(), "detections_scored_total") {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected detections_scored_total in registry output")
	}
}
