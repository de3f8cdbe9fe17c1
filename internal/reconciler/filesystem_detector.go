package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"bridgectl/internal/manifest"
	"bridgectl/pkg/logging"
)

const detectorSubsystem = "FilesystemDetector"

// FilesystemDetector turns edits under the manifest directory into
// ChangeEvents. There is one fsnotify watch per resource type directory
// (bridges/ for ovs_bridge); files outside those directories are ignored.
type FilesystemDetector struct {
	mu sync.RWMutex

	basePath string
	watcher  *fsnotify.Watcher

	// resourceTypes whose directory is watched
	resourceTypes map[ResourceType]bool

	// quiet period before a manifest's event is emitted
	debounceInterval time.Duration

	// keyed by type/name
	pendingEvents map[string]*debounceEntry

	stopCh  chan struct{}
	running bool
}

// debounceEntry is a manifest event waiting for its quiet period to end.
type debounceEntry struct {
	event     ChangeEvent
	timer     *time.Timer
	operation ChangeOperation
}

// NewFilesystemDetector watches manifests below basePath. A zero
// debounceInterval means 500ms.
func NewFilesystemDetector(basePath string, debounceInterval time.Duration) *FilesystemDetector {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}

	return &FilesystemDetector{
		basePath:         basePath,
		resourceTypes:    make(map[ResourceType]bool),
		debounceInterval: debounceInterval,
		pendingEvents:    make(map[string]*debounceEntry),
		stopCh:           make(chan struct{}),
	}
}

// Start opens the fsnotify watcher and emits events on changes until ctx
// ends or Stop is called. Starting twice is a no-op.
func (d *FilesystemDetector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}

	d.watcher = watcher
	d.running = true
	d.stopCh = make(chan struct{})
	d.mu.Unlock()

	d.setupWatches()

	go d.processEvents(ctx, watcher, changes)

	logging.Info(detectorSubsystem, "Started watching %s for manifest changes", d.basePath)
	return nil
}

// setupWatches watches the directory of every registered type. A directory
// that cannot be watched is logged and skipped.
func (d *FilesystemDetector) setupWatches() {
	d.mu.RLock()
	types := make([]ResourceType, 0, len(d.resourceTypes))
	for resourceType := range d.resourceTypes {
		types = append(types, resourceType)
	}
	d.mu.RUnlock()

	for _, resourceType := range types {
		if err := d.addWatchForType(resourceType); err != nil {
			logging.Warn(detectorSubsystem, "Failed to add watch for %s: %v", resourceType, err)
		}
	}
}

// addWatchForType watches the manifest directory of resourceType, creating it
// first so a type with no manifests yet still picks up the first one.
func (d *FilesystemDetector) addWatchForType(resourceType ResourceType) error {
	watchPath := filepath.Join(d.basePath, manifest.DirForType(string(resourceType)))

	if err := os.MkdirAll(watchPath, 0755); err != nil {
		return err
	}

	d.mu.RLock()
	watcher := d.watcher
	d.mu.RUnlock()
	if watcher == nil {
		return nil
	}

	if err := watcher.Add(watchPath); err != nil {
		return err
	}

	logging.Debug(detectorSubsystem, "Watching directory: %s", watchPath)
	return nil
}

// processEvents is the detector loop. It exits on ctx, Stop or a closed watcher.
func (d *FilesystemDetector) processEvents(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- ChangeEvent) {
	d.mu.RLock()
	stopCh := d.stopCh
	d.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			d.cleanupPendingEvents()
			return

		case <-stopCh:
			d.cleanupPendingEvents()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			d.handleFsEvent(event, changes)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error(detectorSubsystem, err, "Filesystem watcher error")
		}
	}
}

// handleFsEvent maps one fsnotify event on a manifest file to a ChangeEvent.
func (d *FilesystemDetector) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	if !isYAMLFile(event.Name) {
		return
	}

	resourceType, name := d.parseFilePath(event.Name)
	if resourceType == "" {
		return
	}

	d.mu.RLock()
	watching := d.resourceTypes[resourceType]
	d.mu.RUnlock()
	if !watching {
		return
	}

	var operation ChangeOperation
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		operation = OperationCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		operation = OperationUpdate
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		operation = OperationDelete
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		// The new name, if still in a watched directory, arrives as a Create.
		operation = OperationDelete
	default:
		return
	}

	changeEvent := ChangeEvent{
		Type:      resourceType,
		Name:      name,
		Operation: operation,
		Timestamp: time.Now(),
		Source:    SourceFilesystem,
		FilePath:  event.Name,
	}

	d.debounceEvent(changeEvent, changes)
}

// debounceEvent holds event until the manifest has been quiet for
// debounceInterval, merging it with any event already pending for it.
// A full channel drops the event; the periodic resync catches it up.
func (d *FilesystemDetector) debounceEvent(event ChangeEvent, changes chan<- ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := resourceKey(event.Type, event.Name)

	if entry, ok := d.pendingEvents[key]; ok {
		entry.timer.Stop()
		event.Operation = mergeOperations(entry.operation, event.Operation)
	}

	timer := time.AfterFunc(d.debounceInterval, func() {
		d.mu.Lock()
		entry, ok := d.pendingEvents[key]
		if ok {
			delete(d.pendingEvents, key)
		}
		d.mu.Unlock()

		if ok {
			select {
			case changes <- entry.event:
				logging.Debug(detectorSubsystem, "Emitted change event: %s %s/%s",
					entry.event.Operation, entry.event.Type, entry.event.Name)
			default:
				logging.Warn(detectorSubsystem, "Change event channel full, dropping event for %s/%s",
					entry.event.Type, entry.event.Name)
			}
		}
	})

	d.pendingEvents[key] = &debounceEntry{
		event:     event,
		timer:     timer,
		operation: event.Operation,
	}
}

// mergeOperations folds two operations on the same manifest within one
// debounce window: Create+Update is Create, anything followed by Delete is
// Delete, and Delete followed by Create (an editor's atomic save) is Update.
func mergeOperations(old, new ChangeOperation) ChangeOperation {
	switch {
	case new == OperationDelete:
		return OperationDelete
	case old == OperationCreate:
		return OperationCreate
	case old == OperationDelete && new == OperationCreate:
		return OperationUpdate
	default:
		return new
	}
}

// parseFilePath maps <basePath>/<type-dir>/<name>.yaml to the resource it describes.
func (d *FilesystemDetector) parseFilePath(path string) (ResourceType, string) {
	relPath, err := filepath.Rel(d.basePath, path)
	if err != nil {
		return "", ""
	}

	// Only files directly inside a type directory are manifests of that type.
	parts := strings.Split(relPath, string(filepath.Separator))
	if len(parts) != 2 || parts[0] == ".." {
		return "", ""
	}
	dirName, fileName := parts[0], parts[1]

	resourceType := ResourceType(dirName)
	if typeName, ok := manifest.TypeForDir(dirName); ok {
		resourceType = ResourceType(typeName)
	}

	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return resourceType, name
}

// cleanupPendingEvents discards events still inside their quiet period.
func (d *FilesystemDetector) cleanupPendingEvents() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range d.pendingEvents {
		entry.timer.Stop()
	}
	d.pendingEvents = make(map[string]*debounceEntry)
}

// Stop closes the watcher. Pending debounced events are discarded.
func (d *FilesystemDetector) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.running = false
	close(d.stopCh)

	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			logging.Error(detectorSubsystem, err, "Error closing filesystem watcher")
		}
		d.watcher = nil
	}

	logging.Info(detectorSubsystem, "Stopped filesystem detector")
	return nil
}

// GetSource reports SourceFilesystem.
func (d *FilesystemDetector) GetSource() ChangeSource {
	return SourceFilesystem
}

// AddResourceType registers resourceType. On a running detector its
// directory is watched right away.
func (d *FilesystemDetector) AddResourceType(resourceType ResourceType) error {
	d.mu.Lock()
	d.resourceTypes[resourceType] = true
	running := d.running
	d.mu.Unlock()

	if running {
		return d.addWatchForType(resourceType)
	}

	return nil
}

// RemoveResourceType stops watching the directory of resourceType.
func (d *FilesystemDetector) RemoveResourceType(resourceType ResourceType) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.resourceTypes, resourceType)

	if d.watcher != nil {
		watchPath := filepath.Join(d.basePath, manifest.DirForType(string(resourceType)))
		if err := d.watcher.Remove(watchPath); err != nil {
			logging.Debug(detectorSubsystem, "Could not remove watch on %s: %v", watchPath, err)
		}
	}

	return nil
}

// isYAMLFile accepts the .yaml and .yml extensions the manifest store reads.
func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

