package reconciler

import (
	"sync"
	"testing"

	"bridgectl/internal/resource"
)

func TestReconcilerMetrics_NewInstance(t *testing.T) {
	metrics := NewReconcilerMetrics()
	if metrics == nil {
		t.Fatal("expected non-nil metrics instance")
	}
	if metrics.resourceMetrics == nil {
		t.Error("expected resourceMetrics map to be initialized")
	}
}

func TestReconcilerMetrics_RecordAttempt(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordAttempt(testType)

	summary := metrics.GetSummary()
	if summary.TotalAttempts != 1 {
		t.Errorf("expected TotalAttempts=1, got %d", summary.TotalAttempts)
	}
	if len(summary.PerResourceTypeMetrics) != 1 {
		t.Fatalf("expected 1 resource type, got %d", len(summary.PerResourceTypeMetrics))
	}
	view := summary.PerResourceTypeMetrics[0]
	if view.Attempts != 1 || view.LastReconcileAt.IsZero() {
		t.Errorf("unexpected per-type metrics: %+v", view)
	}
}

func TestReconcilerMetrics_RecordOutcome(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordOutcome(testType, "br0", resource.OutcomeSuccess, true)
	metrics.RecordOutcome(testType, "br1", resource.OutcomeSuccess, false)
	metrics.RecordOutcome(testType, "br2", resource.OutcomePartial, true)
	metrics.RecordOutcome(testType, "br3", resource.OutcomeFailure, false)

	summary := metrics.GetSummary()
	if summary.TotalSuccesses != 2 {
		t.Errorf("expected TotalSuccesses=2, got %d", summary.TotalSuccesses)
	}
	if summary.TotalPartials != 1 {
		t.Errorf("expected TotalPartials=1, got %d", summary.TotalPartials)
	}
	if summary.TotalFailures != 1 {
		t.Errorf("expected TotalFailures=1, got %d", summary.TotalFailures)
	}
	if summary.FailureRate != 0.5 {
		t.Errorf("expected FailureRate=0.5, got %f", summary.FailureRate)
	}

	view := summary.PerResourceTypeMetrics[0]
	if view.Changes != 2 {
		t.Errorf("expected Changes=2, got %d", view.Changes)
	}
	if view.LastSuccessAt.IsZero() || view.LastFailureAt.IsZero() {
		t.Error("expected success and failure timestamps to be set")
	}
}

func TestReconcilerMetrics_MultipleResourceTypes(t *testing.T) {
	metrics := NewReconcilerMetrics()

	metrics.RecordAttempt("ovs_port")
	metrics.RecordOutcome("ovs_port", "p0", resource.OutcomeFailure, false)
	metrics.RecordAttempt(testType)
	metrics.RecordOutcome(testType, "br0", resource.OutcomeSuccess, true)

	summary := metrics.GetSummary()
	if summary.TotalAttempts != 2 {
		t.Errorf("expected TotalAttempts=2, got %d", summary.TotalAttempts)
	}
	if len(summary.PerResourceTypeMetrics) != 2 {
		t.Fatalf("expected 2 resource type metrics, got %d", len(summary.PerResourceTypeMetrics))
	}
	if summary.PerResourceTypeMetrics[0].ResourceType != testType {
		t.Errorf("expected per-type metrics sorted by type, got %s first", summary.PerResourceTypeMetrics[0].ResourceType)
	}
}

func TestReconcilerMetrics_FailureRateZeroAttempts(t *testing.T) {
	summary := NewReconcilerMetrics().GetSummary()

	if summary.FailureRate != 0 {
		t.Errorf("expected FailureRate=0 with no attempts, got %f", summary.FailureRate)
	}
}

func TestReconcilerMetrics_Reset(t *testing.T) {
	metrics := NewReconcilerMetrics()
	metrics.RecordAttempt(testType)
	metrics.RecordOutcome(testType, "br0", resource.OutcomeSuccess, true)

	metrics.Reset()

	summary := metrics.GetSummary()
	if summary.TotalAttempts != 0 || summary.TotalSuccesses != 0 {
		t.Errorf("expected zeroed counters after reset, got %+v", summary)
	}
	if len(summary.PerResourceTypeMetrics) != 0 {
		t.Errorf("expected no per-type metrics after reset, got %d", len(summary.PerResourceTypeMetrics))
	}
}

func TestReconcilerMetrics_ConcurrentAccess(t *testing.T) {
	metrics := NewReconcilerMetrics()

	const goroutines = 10
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.RecordAttempt(testType)
			metrics.RecordOutcome(testType, "br0", resource.OutcomeSuccess, false)
			_ = metrics.GetSummary()
		}()
	}
	wg.Wait()

	summary := metrics.GetSummary()
	if summary.TotalAttempts != goroutines || summary.TotalSuccesses != goroutines {
		t.Errorf("expected %d attempts and successes, got %+v", goroutines, summary)
	}
}
