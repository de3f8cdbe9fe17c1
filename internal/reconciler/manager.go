package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bridgectl/pkg/logging"
)

const managerSubsystem = "ReconcileManager"

// Manager coordinates watch mode.
//
// It manages:
//   - the change detector watching the manifest tree
//   - per-type reconcilers
//   - the work queue and worker pool
//   - retries with exponential backoff and periodic resyncs
type Manager struct {
	mu sync.RWMutex

	config ManagerConfig

	// changeDetector detects manifest changes
	changeDetector ChangeDetector

	// reconcilers maps resource types to their reconcilers
	reconcilers map[ResourceType]Reconciler

	// queue is the work queue for reconciliation requests
	queue *delayedQueue

	// statusTracker tracks reconciliation status for each resource
	statusTracker map[string]*ReconcileStatus

	metrics *ReconcilerMetrics

	// changeChan receives change events from detectors
	changeChan chan ChangeEvent

	ctx        context.Context
	cancelFunc context.CancelFunc

	// wg tracks running workers
	wg sync.WaitGroup

	running bool
}

// NewManager creates a new reconciliation manager.
func NewManager(config ManagerConfig) *Manager {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 2
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 5 * time.Minute
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 500 * time.Millisecond
	}
	if config.ReconcileTimeout <= 0 {
		config.ReconcileTimeout = 2 * time.Minute
	}
	if config.DisabledResourceTypes == nil {
		config.DisabledResourceTypes = make(map[ResourceType]bool)
	}

	return &Manager{
		config:         config,
		changeDetector: config.ChangeDetector,
		reconcilers:    make(map[ResourceType]Reconciler),
		queue:          NewDelayedQueue(),
		statusTracker:  make(map[string]*ReconcileStatus),
		metrics:        NewReconcilerMetrics(),
		changeChan:     make(chan ChangeEvent, 100),
	}
}

// RegisterReconciler registers a reconciler for a specific resource type.
func (m *Manager) RegisterReconciler(reconciler Reconciler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	resourceType := reconciler.GetResourceType()
	if _, exists := m.reconcilers[resourceType]; exists {
		return fmt.Errorf("reconciler for %s already registered", resourceType)
	}

	m.reconcilers[resourceType] = reconciler
	logging.Info(managerSubsystem, "Registered reconciler for %s", resourceType)

	if m.running && m.changeDetector != nil {
		if err := m.changeDetector.AddResourceType(resourceType); err != nil {
			logging.Warn(managerSubsystem, "Failed to add watch for %s: %v", resourceType, err)
		}
	}

	return nil
}

// Start begins watching and queues every known resource for an initial pass.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}

	if m.changeDetector == nil {
		if m.config.ManifestsPath == "" {
			m.mu.Unlock()
			return fmt.Errorf("manifests path required for watch mode")
		}
		m.changeDetector = NewFilesystemDetector(m.config.ManifestsPath, m.config.DebounceInterval)
	}

	for resourceType := range m.reconcilers {
		if err := m.changeDetector.AddResourceType(resourceType); err != nil {
			logging.Warn(managerSubsystem, "Failed to add watch for %s: %v", resourceType, err)
		}
	}

	m.ctx, m.cancelFunc = context.WithCancel(ctx)
	m.running = true
	m.mu.Unlock()

	if err := m.changeDetector.Start(m.ctx, m.changeChan); err != nil {
		m.mu.Lock()
		m.running = false
		m.cancelFunc()
		m.mu.Unlock()
		return fmt.Errorf("failed to start change detector: %w", err)
	}

	m.wg.Add(1)
	go m.processChangeEvents()

	for i := 0; i < m.config.WorkerCount; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	queued := m.Resync()
	logging.Info(managerSubsystem, "Started with %d workers, %d resources queued", m.config.WorkerCount, queued)
	return nil
}

// Resync queues every resource the registered reconcilers can list and
// returns how many were queued.
func (m *Manager) Resync() int {
	m.mu.RLock()
	ctx := m.ctx
	listers := make(map[ResourceType]Lister)
	for resourceType, reconciler := range m.reconcilers {
		if lister, ok := reconciler.(Lister); ok && !m.config.DisabledResourceTypes[resourceType] {
			listers[resourceType] = lister
		}
	}
	m.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}

	queued := 0
	for resourceType, lister := range listers {
		names, err := lister.ListNames(ctx)
		if err != nil {
			logging.Error(managerSubsystem, err, "Failed to list %s resources for resync", resourceType)
			continue
		}
		for _, name := range names {
			m.handleChangeEvent(ChangeEvent{
				Type:      resourceType,
				Name:      name,
				Operation: OperationUpdate,
				Timestamp: time.Now(),
				Source:    SourceResync,
			})
			queued++
		}
	}
	return queued
}

// processChangeEvents converts change events to reconcile requests.
func (m *Manager) processChangeEvents() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return

		case event, ok := <-m.changeChan:
			if !ok {
				return
			}
			m.handleChangeEvent(event)
		}
	}
}

// handleChangeEvent processes a single change event.
func (m *Manager) handleChangeEvent(event ChangeEvent) {
	if !m.IsResourceTypeEnabled(event.Type) {
		logging.Debug(managerSubsystem, "Skipping change event for disabled resource type: %s %s/%s",
			event.Operation, event.Type, event.Name)
		return
	}

	logging.Debug(managerSubsystem, "Handling change event: %s %s/%s from %s",
		event.Operation, event.Type, event.Name, event.Source)

	m.updateStatus(event.Type, event.Name, func(s *ReconcileStatus) {
		s.State = StatePending
	})

	// A fresh change replaces any pending retry and starts counting attempts again.
	m.queue.Add(ReconcileRequest{
		Type:    event.Type,
		Name:    event.Name,
		Attempt: 1,
	})
}

// worker processes reconciliation requests from the queue.
func (m *Manager) worker(id int) {
	defer m.wg.Done()

	logging.Debug(managerSubsystem, "Worker %d started", id)

	for {
		req, ok := m.queue.Get(m.ctx)
		if !ok {
			logging.Debug(managerSubsystem, "Worker %d shutting down", id)
			return
		}

		m.processRequest(req)
		m.queue.Done(req)
	}
}

// processRequest handles a single reconciliation request.
func (m *Manager) processRequest(req ReconcileRequest) {
	m.mu.RLock()
	reconciler, ok := m.reconcilers[req.Type]
	timeout := m.config.ReconcileTimeout
	m.mu.RUnlock()

	if !ok {
		logging.Warn(managerSubsystem, "No reconciler for resource type: %s", req.Type)
		return
	}

	m.updateStatus(req.Type, req.Name, func(s *ReconcileStatus) {
		s.State = StateReconciling
	})
	m.metrics.RecordAttempt(req.Type)

	logging.Debug(managerSubsystem, "Reconciling %s/%s (attempt %d)", req.Type, req.Name, req.Attempt)

	ctx, cancel := context.WithTimeout(m.ctx, timeout)
	defer cancel()

	result := reconciler.Reconcile(ctx, req)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) && result.Error == nil {
		result.Error = fmt.Errorf("reconciliation timed out after %v", timeout)
	}

	if result.Forget {
		m.forget(req)
		return
	}

	if result.Outcome != "" {
		m.metrics.RecordOutcome(req.Type, req.Name, result.Outcome, result.Changed)
	}

	switch {
	case result.Error != nil:
		m.handleReconcileError(req, result)
	case result.Requeue || result.RequeueAfter > 0:
		m.handleSuccess(req, result)
		m.handleRequeue(req, result)
	default:
		m.handleSuccess(req, result)
	}
}

// handleReconcileError handles a failed reconciliation.
func (m *Manager) handleReconcileError(req ReconcileRequest, result ReconcileResult) {
	errMsg := summarizeError(result.Error)

	if result.Terminal || req.Attempt >= m.config.MaxRetries {
		logging.Error(managerSubsystem, result.Error, "Giving up on %s/%s after %d attempt(s)", req.Type, req.Name, req.Attempt)
		m.updateStatus(req.Type, req.Name, func(s *ReconcileStatus) {
			s.State = StateFailed
			s.LastError = errMsg
			s.LastOutcome = result.Outcome
			s.LastRunID = result.RunID
		})
		return
	}

	logging.Warn(managerSubsystem, "Reconciliation failed for %s/%s: %v", req.Type, req.Name, result.Error)
	m.updateStatus(req.Type, req.Name, func(s *ReconcileStatus) {
		s.State = StateError
		s.LastError = errMsg
		s.LastOutcome = result.Outcome
		s.LastRunID = result.RunID
		s.RetryCount++
	})

	backoff := m.calculateBackoff(req.Attempt)

	req.Attempt++
	req.LastError = result.Error
	m.queue.AddAfter(req, backoff)

	logging.Debug(managerSubsystem, "Requeuing %s/%s after %v (attempt %d)", req.Type, req.Name, backoff, req.Attempt)
}

// handleRequeue schedules the next pass of a converged resource.
func (m *Manager) handleRequeue(req ReconcileRequest, result ReconcileResult) {
	delay := result.RequeueAfter
	if delay == 0 {
		delay = m.config.InitialBackoff
	}

	req.Attempt = 1
	req.LastError = nil
	m.queue.AddAfter(req, delay)
	logging.Debug(managerSubsystem, "Requeuing %s/%s after %v", req.Type, req.Name, delay)
}

// handleSuccess handles a successful reconciliation.
func (m *Manager) handleSuccess(req ReconcileRequest, result ReconcileResult) {
	logging.Debug(managerSubsystem, "Successfully reconciled %s/%s", req.Type, req.Name)
	now := time.Now()
	m.updateStatus(req.Type, req.Name, func(s *ReconcileStatus) {
		s.State = StateSynced
		s.LastError = ""
		s.LastReconcileTime = &now
		s.LastOutcome = result.Outcome
		s.LastRunID = result.RunID
		s.RetryCount = 0
	})
}

// forget drops a resource whose manifest no longer exists.
func (m *Manager) forget(req ReconcileRequest) {
	m.queue.Cancel(req)

	m.mu.Lock()
	delete(m.statusTracker, resourceKey(req.Type, req.Name))
	m.mu.Unlock()

	logging.Debug(managerSubsystem, "Stopped tracking %s/%s", req.Type, req.Name)
}

// calculateBackoff computes exponential backoff: initial * 2^(attempt-1), capped at max.
func (m *Manager) calculateBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	backoff := m.config.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= m.config.MaxBackoff || backoff <= 0 {
			return m.config.MaxBackoff
		}
	}

	if backoff > m.config.MaxBackoff {
		backoff = m.config.MaxBackoff
	}
	return backoff
}

// updateStatus applies update to the status of a resource, creating it when needed.
func (m *Manager) updateStatus(resourceType ResourceType, name string, update func(*ReconcileStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := resourceKey(resourceType, name)
	status, ok := m.statusTracker[key]
	if !ok {
		status = &ReconcileStatus{
			ResourceType: resourceType,
			Name:         name,
		}
		m.statusTracker[key] = status
	}

	update(status)
}

// summarizeError keeps the first line of an error message for status display.
func summarizeError(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

// Stop gracefully shuts down the reconciliation manager.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	logging.Info(managerSubsystem, "Stopping reconciliation manager...")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.changeDetector != nil {
		if err := m.changeDetector.Stop(); err != nil {
			logging.Error(managerSubsystem, err, "Error stopping change detector")
		}
	}

	m.queue.Shutdown()
	m.wg.Wait()

	logging.Info(managerSubsystem, "Reconciliation manager stopped")
	return nil
}

// GetStatus returns a copy of the reconciliation status for a resource.
func (m *Manager) GetStatus(resourceType ResourceType, name string) (ReconcileStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statusTracker[resourceKey(resourceType, name)]
	if !ok {
		return ReconcileStatus{}, false
	}
	return *status, true
}

// GetAllStatuses returns all reconciliation statuses sorted by type and name.
func (m *Manager) GetAllStatuses() []ReconcileStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]ReconcileStatus, 0, len(m.statusTracker))
	for _, status := range m.statusTracker {
		statuses = append(statuses, *status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].ResourceType != statuses[j].ResourceType {
			return statuses[i].ResourceType < statuses[j].ResourceType
		}
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}

// Metrics returns the manager's counters.
func (m *Manager) Metrics() *ReconcilerMetrics {
	return m.metrics
}

// TriggerReconcile manually triggers reconciliation for a resource.
func (m *Manager) TriggerReconcile(resourceType ResourceType, name string) {
	m.handleChangeEvent(ChangeEvent{
		Type:      resourceType,
		Name:      name,
		Operation: OperationUpdate,
		Timestamp: time.Now(),
		Source:    SourceManual,
	})
}

// IsRunning returns whether the manager is running.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// GetQueueLength returns the number of requests ready for a worker.
func (m *Manager) GetQueueLength() int {
	return m.queue.Len()
}

// GetEnabledResourceTypes returns the sorted resource types with reconciliation enabled.
func (m *Manager) GetEnabledResourceTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	types := make([]string, 0, len(m.reconcilers))
	for rt := range m.reconcilers {
		if !m.config.DisabledResourceTypes[rt] {
			types = append(types, string(rt))
		}
	}
	sort.Strings(types)
	return types
}

// IsResourceTypeEnabled checks if reconciliation is enabled for a resource type.
func (m *Manager) IsResourceTypeEnabled(resourceType ResourceType) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, registered := m.reconcilers[resourceType]
	return registered && !m.config.DisabledResourceTypes[resourceType]
}

// DisableResourceType disables reconciliation for a specific resource type.
func (m *Manager) DisableResourceType(resourceType ResourceType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.DisabledResourceTypes[resourceType] = true
	logging.Info(managerSubsystem, "Disabled reconciliation for %s", resourceType)
}

// EnableResourceType enables reconciliation for a specific resource type.
func (m *Manager) EnableResourceType(resourceType ResourceType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.config.DisabledResourceTypes, resourceType)
	logging.Info(managerSubsystem, "Enabled reconciliation for %s", resourceType)
}
