package reconciler

import (
	"context"
	"sync"
	"time"
)

// requestKey is the resourceKey of the resource req targets.
func requestKey(req ReconcileRequest) string {
	return resourceKey(req.Type, req.Name)
}

// resourceKey identifies a resource across the queue, the detector and the status tracker.
func resourceKey(resourceType ResourceType, name string) string {
	return string(resourceType) + "/" + name
}

// workQueue is the ReconcileQueue used by watch mode. Requests for the same
// resource collapse into one entry that carries the latest request.
//
// A resource is in at most one of three places: queued (waiting for a
// worker), processing (held by a worker) or dirty (changed again while being
// processed, re-queued on Done). One resource is therefore never handled by
// two workers at once.
type workQueue struct {
	mu   sync.Mutex
	cond *sync.Cond

	// order holds queued keys in FIFO order
	order []string

	// queued holds the latest request for each queued key
	queued map[string]ReconcileRequest

	// keys held by a worker
	processing map[string]bool

	// requests that arrived for a key while a worker held it
	dirty map[string]ReconcileRequest

	shuttingDown bool
}

// NewQueue returns an empty FIFO queue.
func NewQueue() ReconcileQueue {
	q := &workQueue{
		queued:     make(map[string]ReconcileRequest),
		processing: make(map[string]bool),
		dirty:      make(map[string]ReconcileRequest),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add queues req, or replaces the queued request for the same resource. A
// resource held by a worker is parked as dirty instead.
func (q *workQueue) Add(req ReconcileRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shuttingDown {
		return
	}

	key := requestKey(req)

	if q.processing[key] {
		q.dirty[key] = req
		return
	}

	if _, ok := q.queued[key]; ok {
		q.queued[key] = req
		return
	}

	q.queued[key] = req
	q.order = append(q.order, key)
	q.cond.Signal()
}

// Get retrieves the next request, blocking until one is available, the queue
// shuts down or ctx is cancelled.
func (q *workQueue) Get(ctx context.Context) (ReconcileRequest, bool) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.order) == 0 && !q.shuttingDown && ctx.Err() == nil {
		q.cond.Wait()
	}

	if ctx.Err() != nil || len(q.order) == 0 {
		return ReconcileRequest{}, false
	}

	key := q.order[0]
	q.order = q.order[1:]
	req := q.queued[key]
	delete(q.queued, key)
	q.processing[key] = true

	return req, true
}

// Done releases req's resource and re-queues it if it went dirty meanwhile.
func (q *workQueue) Done(req ReconcileRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := requestKey(req)
	delete(q.processing, key)

	if dirtyReq, ok := q.dirty[key]; ok {
		delete(q.dirty, key)
		if q.shuttingDown {
			return
		}
		q.queued[key] = dirtyReq
		q.order = append(q.order, key)
		q.cond.Signal()
	}
}

// Len returns the number of queued requests.
func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Shutdown stops the queue. Queued requests are still handed out; Get
// returns false once the queue is empty.
func (q *workQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shuttingDown = true
	q.cond.Broadcast()
}

// delayedQueue adds timed retries on top of workQueue for backoff and resync.
type delayedQueue struct {
	queue      ReconcileQueue
	mu         sync.Mutex
	delayedMap map[string]*time.Timer
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewDelayedQueue returns an empty queue with no timers pending.
func NewDelayedQueue() *delayedQueue {
	return &delayedQueue{
		queue:      NewQueue(),
		delayedMap: make(map[string]*time.Timer),
		stopCh:     make(chan struct{}),
	}
}

// Add adds a request immediately, superseding any delayed one for the same resource.
func (d *delayedQueue) Add(req ReconcileRequest) {
	d.Cancel(req)
	d.queue.Add(req)
}

// AddAfter adds a request after a delay. A later AddAfter for the same
// resource replaces the earlier timer.
func (d *delayedQueue) AddAfter(req ReconcileRequest, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := requestKey(req)

	if timer, ok := d.delayedMap[key]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		// A replaced timer may still fire; only the current one enqueues.
		current := d.delayedMap[key] == timer
		if current {
			delete(d.delayedMap, key)
		}
		d.mu.Unlock()

		if !current {
			return
		}
		select {
		case <-d.stopCh:
		default:
			d.queue.Add(req)
		}
	})
	d.delayedMap[key] = timer
}

// Cancel drops a delayed request for req's resource, if any.
func (d *delayedQueue) Cancel(req ReconcileRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := requestKey(req)
	if timer, ok := d.delayedMap[key]; ok {
		timer.Stop()
		delete(d.delayedMap, key)
	}
}

// Get blocks like workQueue.Get.
func (d *delayedQueue) Get(ctx context.Context) (ReconcileRequest, bool) {
	return d.queue.Get(ctx)
}

// Done releases req's resource.
func (d *delayedQueue) Done(req ReconcileRequest) {
	d.queue.Done(req)
}

// Len returns the number of requests ready for a worker.
func (d *delayedQueue) Len() int {
	return d.queue.Len()
}

// Pending returns the number of requests waiting for their delay to pass.
func (d *delayedQueue) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.delayedMap)
}

// Shutdown drops every pending retry, then shuts the inner queue down.
func (d *delayedQueue) Shutdown() {
	d.stopOnce.Do(func() { close(d.stopCh) })

	d.mu.Lock()
	for _, timer := range d.delayedMap {
		timer.Stop()
	}
	d.delayedMap = make(map[string]*time.Timer)
	d.mu.Unlock()

	d.queue.Shutdown()
}
