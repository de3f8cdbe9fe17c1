package reconciler

import (
	"sort"
	"sync"
	"time"

	"bridgectl/internal/resource"
	"bridgectl/pkg/logging"
)

// ReconcilerMetrics tracks reconciliation counters per resource type.
//
// Partial passes are counted apart from failures: they changed the host
// before stopping, so the next pass has less to do.
type ReconcilerMetrics struct {
	mu sync.RWMutex

	resourceMetrics map[ResourceType]*resourceTypeMetrics

	totalAttempts  int64
	totalSuccesses int64
	totalPartials  int64
	totalFailures  int64
}

// resourceTypeMetrics holds reconciliation metrics for a specific resource type.
type resourceTypeMetrics struct {
	Attempts        int64
	Successes       int64
	Partials        int64
	Failures        int64
	Changes         int64
	LastReconcileAt time.Time
	LastSuccessAt   time.Time
	LastFailureAt   time.Time
}

// NewReconcilerMetrics creates a new ReconcilerMetrics instance.
func NewReconcilerMetrics() *ReconcilerMetrics {
	return &ReconcilerMetrics{
		resourceMetrics: make(map[ResourceType]*resourceTypeMetrics),
	}
}

func (m *ReconcilerMetrics) getOrCreateResourceMetrics(resourceType ResourceType) *resourceTypeMetrics {
	if metrics, exists := m.resourceMetrics[resourceType]; exists {
		return metrics
	}

	metrics := &resourceTypeMetrics{}
	m.resourceMetrics[resourceType] = metrics
	return metrics
}

// RecordAttempt records the start of a reconciliation.
func (m *ReconcilerMetrics) RecordAttempt(resourceType ResourceType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateResourceMetrics(resourceType)
	metrics.Attempts++
	metrics.LastReconcileAt = time.Now()
	m.totalAttempts++
}

// RecordOutcome records how a reconciliation ended. changed tells whether the
// pass applied any action.
func (m *ReconcilerMetrics) RecordOutcome(resourceType ResourceType, name string, outcome resource.Outcome, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateResourceMetrics(resourceType)
	now := time.Now()
	if changed {
		metrics.Changes++
	}

	switch outcome {
	case resource.OutcomeSuccess:
		metrics.Successes++
		metrics.LastSuccessAt = now
		m.totalSuccesses++
	case resource.OutcomePartial:
		metrics.Partials++
		metrics.LastFailureAt = now
		m.totalPartials++
		logging.Debug("ReconcilerMetrics", "Partial convergence for %s/%s (partials: %d)", resourceType, name, metrics.Partials)
	default:
		metrics.Failures++
		metrics.LastFailureAt = now
		m.totalFailures++
		logging.Debug("ReconcilerMetrics", "Failed convergence for %s/%s (failures: %d)", resourceType, name, metrics.Failures)
	}
}

// ReconcilerMetricsSummary provides a summary of reconciliation metrics.
type ReconcilerMetricsSummary struct {
	TotalAttempts          int64                    `json:"totalAttempts" yaml:"totalAttempts"`
	TotalSuccesses         int64                    `json:"totalSuccesses" yaml:"totalSuccesses"`
	TotalPartials          int64                    `json:"totalPartials" yaml:"totalPartials"`
	TotalFailures          int64                    `json:"totalFailures" yaml:"totalFailures"`
	FailureRate            float64                  `json:"failureRate" yaml:"failureRate"`
	PerResourceTypeMetrics []ResourceTypeMetricView `json:"perResourceType" yaml:"perResourceType"`
}

// ResourceTypeMetricView is a read-only view of resource-type-specific metrics.
type ResourceTypeMetricView struct {
	ResourceType    ResourceType `json:"type" yaml:"type"`
	Attempts        int64        `json:"attempts" yaml:"attempts"`
	Successes       int64        `json:"successes" yaml:"successes"`
	Partials        int64        `json:"partials" yaml:"partials"`
	Failures        int64        `json:"failures" yaml:"failures"`
	Changes         int64        `json:"changes" yaml:"changes"`
	LastReconcileAt time.Time    `json:"lastReconcileAt,omitempty" yaml:"lastReconcileAt,omitempty"`
	LastSuccessAt   time.Time    `json:"lastSuccessAt,omitempty" yaml:"lastSuccessAt,omitempty"`
	LastFailureAt   time.Time    `json:"lastFailureAt,omitempty" yaml:"lastFailureAt,omitempty"`
}

// GetSummary returns a snapshot of all counters, per-type views sorted by type.
func (m *ReconcilerMetrics) GetSummary() ReconcilerMetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := ReconcilerMetricsSummary{
		TotalAttempts:  m.totalAttempts,
		TotalSuccesses: m.totalSuccesses,
		TotalPartials:  m.totalPartials,
		TotalFailures:  m.totalFailures,
	}

	// Partials count as failures for the rate: the resource did not converge.
	finished := m.totalSuccesses + m.totalPartials + m.totalFailures
	if finished > 0 {
		summary.FailureRate = float64(m.totalPartials+m.totalFailures) / float64(finished)
	}

	for resourceType, metrics := range m.resourceMetrics {
		summary.PerResourceTypeMetrics = append(summary.PerResourceTypeMetrics, ResourceTypeMetricView{
			ResourceType:    resourceType,
			Attempts:        metrics.Attempts,
			Successes:       metrics.Successes,
			Partials:        metrics.Partials,
			Failures:        metrics.Failures,
			Changes:         metrics.Changes,
			LastReconcileAt: metrics.LastReconcileAt,
			LastSuccessAt:   metrics.LastSuccessAt,
			LastFailureAt:   metrics.LastFailureAt,
		})
	}
	sort.Slice(summary.PerResourceTypeMetrics, func(i, j int) bool {
		return summary.PerResourceTypeMetrics[i].ResourceType < summary.PerResourceTypeMetrics[j].ResourceType
	})

	return summary
}

// Reset clears all counters.
func (m *ReconcilerMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resourceMetrics = make(map[ResourceType]*resourceTypeMetrics)
	m.totalAttempts = 0
	m.totalSuccesses = 0
	m.totalPartials = 0
	m.totalFailures = 0
}
