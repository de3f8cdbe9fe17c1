package reconciler

import (
	"context"
	"time"

	"bridgectl/internal/resource"
)

// ResourceType is the registered name of a resource type, e.g. "ovs_bridge".
type ResourceType string

// ChangeEvent represents a detected change in a manifest.
type ChangeEvent struct {
	// Type is the type of resource that changed.
	Type ResourceType

	// Name is the name of the resource that changed.
	Name string

	// Operation describes what kind of change occurred.
	Operation ChangeOperation

	// Timestamp is when the change was detected.
	Timestamp time.Time

	// Source indicates where the change came from.
	Source ChangeSource

	// FilePath is the manifest file that changed (filesystem source only).
	FilePath string
}

// ChangeOperation represents the type of change detected.
type ChangeOperation string

const (
	// OperationCreate indicates a new manifest was created.
	OperationCreate ChangeOperation = "Create"

	// OperationUpdate indicates an existing manifest was modified.
	OperationUpdate ChangeOperation = "Update"

	// OperationDelete indicates a manifest was deleted.
	OperationDelete ChangeOperation = "Delete"
)

// ChangeSource indicates where a change originated.
type ChangeSource string

const (
	// SourceFilesystem indicates the change came from filesystem watching.
	SourceFilesystem ChangeSource = "Filesystem"

	// SourceResync indicates a full pass over every known manifest.
	SourceResync ChangeSource = "Resync"

	// SourceManual indicates the change was triggered manually.
	SourceManual ChangeSource = "Manual"
)

// ReconcileResult represents the outcome of a reconciliation attempt.
type ReconcileResult struct {
	// Requeue indicates whether the resource should be requeued for retry.
	Requeue bool

	// RequeueAfter specifies when to requeue (0 means use default backoff).
	RequeueAfter time.Duration

	// Error is any error that occurred during reconciliation.
	Error error

	// Terminal marks an error that retrying cannot fix, such as an invalid manifest.
	Terminal bool

	// Forget drops the resource from status tracking; its manifest is gone.
	Forget bool

	// Outcome is the convergence outcome when a pass ran.
	Outcome resource.Outcome

	// RunID identifies the pass in the history journal.
	RunID string

	// Changed reports whether the pass applied any action.
	Changed bool
}

// ReconcileRequest represents a request to reconcile a specific resource.
type ReconcileRequest struct {
	// Type is the type of resource to reconcile.
	Type ResourceType

	// Name is the name of the resource.
	Name string

	// Attempt is the current retry attempt number (starts at 1).
	Attempt int

	// LastError is the error from the previous attempt, if any.
	LastError error
}

// Reconciler is the interface that per-type reconcilers must implement.
type Reconciler interface {
	// Reconcile processes a single reconciliation request.
	// It should be idempotent - calling it multiple times with the same
	// input should produce the same result.
	Reconcile(ctx context.Context, req ReconcileRequest) ReconcileResult

	// GetResourceType returns the type of resource this reconciler handles.
	GetResourceType() ResourceType
}

// Lister is implemented by reconcilers that can enumerate their resources.
// The manager uses it for the initial sync and for resyncs.
type Lister interface {
	ListNames(ctx context.Context) ([]string, error)
}

// ChangeDetector is the interface for components that detect changes in manifests.
type ChangeDetector interface {
	// Start begins watching for changes.
	// The detector should send change events to the provided channel.
	Start(ctx context.Context, changes chan<- ChangeEvent) error

	// Stop gracefully stops the change detector.
	Stop() error

	// GetSource returns the source type this detector monitors.
	GetSource() ChangeSource

	// AddResourceType adds a resource type to watch.
	AddResourceType(resourceType ResourceType) error

	// RemoveResourceType removes a resource type from watching.
	RemoveResourceType(resourceType ResourceType) error
}

// ReconcileQueue represents a queue of resources awaiting reconciliation.
type ReconcileQueue interface {
	// Add adds a request to the queue.
	// If the same resource is already queued, the existing entry is updated.
	Add(req ReconcileRequest)

	// Get retrieves the next request from the queue.
	// Blocks until a request is available or the context is cancelled.
	Get(ctx context.Context) (ReconcileRequest, bool)

	// Done marks a request as processed.
	Done(req ReconcileRequest)

	// Len returns the current queue length.
	Len() int

	// Shutdown signals the queue to stop accepting new items.
	Shutdown()
}

// ManagerConfig holds configuration for the Manager.
type ManagerConfig struct {
	// ManifestsPath is the root of the manifest tree to watch.
	ManifestsPath string

	// WorkerCount is the number of concurrent reconciliation workers.
	// Defaults to 2 if not specified.
	WorkerCount int

	// MaxRetries is the maximum number of attempts for a failing resource.
	// Defaults to 5 if not specified.
	MaxRetries int

	// InitialBackoff is the initial backoff duration for retries.
	// Defaults to 1 second if not specified.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration for retries.
	// Defaults to 5 minutes if not specified.
	MaxBackoff time.Duration

	// DebounceInterval is how long to wait for additional changes before reconciling.
	// Defaults to 500ms if not specified.
	DebounceInterval time.Duration

	// ReconcileTimeout bounds a single reconciliation.
	// Defaults to 2 minutes if not specified.
	ReconcileTimeout time.Duration

	// DisabledResourceTypes is a set of resource types that should not be reconciled.
	DisabledResourceTypes map[ResourceType]bool

	// ChangeDetector overrides the filesystem detector built from ManifestsPath.
	ChangeDetector ChangeDetector
}

// ReconcileStatus represents the current status of reconciliation for a resource.
type ReconcileStatus struct {
	// ResourceType is the type of the resource.
	ResourceType ResourceType `json:"type" yaml:"type"`

	// Name is the name of the resource.
	Name string `json:"name" yaml:"name"`

	// LastReconcileTime is when the resource was last successfully reconciled.
	LastReconcileTime *time.Time `json:"lastReconcileTime,omitempty" yaml:"lastReconcileTime,omitempty"`

	// LastError is the most recent error, if any.
	LastError string `json:"lastError,omitempty" yaml:"lastError,omitempty"`

	// LastOutcome is the outcome of the most recent convergence pass.
	LastOutcome resource.Outcome `json:"lastOutcome,omitempty" yaml:"lastOutcome,omitempty"`

	// LastRunID identifies the most recent pass in the history journal.
	LastRunID string `json:"lastRunId,omitempty" yaml:"lastRunId,omitempty"`

	// RetryCount is the number of retry attempts.
	RetryCount int `json:"retryCount" yaml:"retryCount"`

	// State describes the current reconciliation state.
	State ReconcileState `json:"state" yaml:"state"`
}

// ReconcileState represents the state of a resource's reconciliation.
type ReconcileState string

const (
	// StatePending means the resource is awaiting reconciliation.
	StatePending ReconcileState = "Pending"

	// StateReconciling means reconciliation is in progress.
	StateReconciling ReconcileState = "Reconciling"

	// StateSynced means the resource is successfully reconciled.
	StateSynced ReconcileState = "Synced"

	// StateError means reconciliation failed and will be retried.
	StateError ReconcileState = "Error"

	// StateFailed means reconciliation failed permanently (max retries exceeded or terminal error).
	StateFailed ReconcileState = "Failed"
)
