// Package eventlog provides bounded, rate-limited logging of simulation
// and script lifecycle events (desyncs, rollbacks, VM load failures).
//
// Grounded on the teacher's internal/game/event_log.go: the same circular
// buffer / global+per-source rate limiter / async batched writer shape,
// generalized from per-player gameplay telemetry to per-script-package
// simulation events, so one misbehaving mod package can't flood the log.
package eventlog

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	BufferSize            = 1024
	MaxEventsPerSec        = 10000
	MaxEventsPerSource     = 100
	BatchFlushSize         = 64
	BatchFlushInterval     = 100 * time.Millisecond
	SourceLimiterCleanup   = 5 * time.Minute
)

// Kind identifies the category of a logged event.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTickBoundary
	KindDesyncDetected
	KindRollback
	KindScriptError
	KindVMLoad
	KindVMLoadFailure
	KindEntitySpawn
	KindSnapshotSave
)

const Version uint8 = 1

// String returns the human-readable event kind.
func (k Kind) String() string {
	switch k {
	case KindTickBoundary:
		return "tick_boundary"
	case KindDesyncDetected:
		return "desync_detected"
	case KindRollback:
		return "rollback"
	case KindScriptError:
		return "script_error"
	case KindVMLoad:
		return "vm_load"
	case KindVMLoadFailure:
		return "vm_load_failure"
	case KindEntitySpawn:
		return "entity_spawn"
	case KindSnapshotSave:
		return "snapshot_save"
	default:
		return "unknown"
	}
}

// Event is one logged occurrence.
type Event struct {
	Version   uint8           `json:"version"`
	Kind      Kind            `json:"kind"`
	Timestamp int64           `json:"timestamp"`
	Sequence  uint64          `json:"sequence"`
	Frame     uint64          `json:"frame"`
	Source    string          `json:"source"` // package id, or empty for engine-originated events
	Payload   json.RawMessage `json:"payload"`
}

// New builds an Event, JSON-encoding payload (nil on marshal failure, never
// a panic — matches spec.md §7's "never propagate" error posture).
func New(kind Kind, frame uint64, source string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	return Event{
		Version:   Version,
		Kind:      kind,
		Timestamp: time.Now().UnixNano(),
		Frame:     frame,
		Source:    source,
		Payload:   data,
	}
}

type sourceLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// Log provides bounded, rate-limited event logging with backpressure.
type Log struct {
	buffer    [BufferSize]Event
	writeHead uint64 // atomic
	readHead  uint64 // atomic

	globalLimiter *rate.Limiter
	sourceLimiters sync.Map // map[string]*sourceLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

// NewLog creates a bounded event log.
func NewLog() *Log {
	return &Log{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer goroutine. filePath == "" keeps events
// in the ring buffer only (useful for tests: Emit still succeeds, nothing
// touches disk).
func (l *Log) Start(filePath string) error {
	if l.running.Load() {
		return nil
	}
	l.filePath = filePath

	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		l.file = f
	}

	l.running.Store(true)
	l.writerWg.Add(2)
	go l.writerLoop()
	go l.cleanupLoop()
	return nil
}

// Stop gracefully shuts the log down, flushing any pending batch.
func (l *Log) Stop() {
	l.stopOnce.Do(func() {
		l.running.Store(false)
		close(l.stopChan)
		l.writerWg.Wait()

		l.fileMu.Lock()
		if l.file != nil {
			l.file.Close()
		}
		l.fileMu.Unlock()
	})
}

// Emit adds an event, subject to global and per-source rate limits.
// Returns false if rate limited, or if the log isn't running.
func (l *Log) Emit(event Event) bool {
	if !l.running.Load() {
		return false
	}

	if !l.globalLimiter.Allow() {
		atomic.AddUint64(&l.droppedCount, 1)
		return false
	}

	if event.Source != "" {
		limiter := l.getSourceLimiter(event.Source)
		if !limiter.Allow() {
			atomic.AddUint64(&l.droppedCount, 1)
			return false
		}
	}

	head := atomic.AddUint64(&l.writeHead, 1)
	tail := atomic.LoadUint64(&l.readHead)
	if head-tail >= BufferSize {
		atomic.AddUint64(&l.readHead, 1)
		atomic.AddUint64(&l.droppedCount, 1)
	}

	event.Sequence = head
	idx := head % BufferSize
	l.buffer[idx] = event

	atomic.AddUint64(&l.totalCount, 1)
	return true
}

// EmitSimple builds and emits an event in one call.
func (l *Log) EmitSimple(kind Kind, frame uint64, source string, payload any) bool {
	return l.Emit(New(kind, frame, source, payload))
}

// Dropped returns the number of events dropped to rate limiting or buffer
// backpressure.
func (l *Log) Dropped() uint64 { return atomic.LoadUint64(&l.droppedCount) }

// Total returns the number of events successfully queued.
func (l *Log) Total() uint64 { return atomic.LoadUint64(&l.totalCount) }

func (l *Log) getSourceLimiter(source string) *rate.Limiter {
	if entry, ok := l.sourceLimiters.Load(source); ok {
		e := entry.(*sourceLimiterEntry)
		e.lastUsed = time.Now()
		return e.limiter
	}
	entry := &sourceLimiterEntry{
		limiter:  rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/10),
		lastUsed: time.Now(),
	}
	actual, _ := l.sourceLimiters.LoadOrStore(source, entry)
	return actual.(*sourceLimiterEntry).limiter
}

func (l *Log) writerLoop() {
	defer l.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-l.stopChan:
			batch = l.collectBatch(batch[:0])
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
			return
		case <-ticker.C:
			batch = l.collectBatch(batch[:0])
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
		}
	}
}

func (l *Log) cleanupLoop() {
	defer l.writerWg.Done()

	ticker := time.NewTicker(SourceLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanupSourceLimiters()
		}
	}
}

func (l *Log) cleanupSourceLimiters() {
	cutoff := time.Now().Add(-SourceLimiterCleanup)
	l.sourceLimiters.Range(func(key, value any) bool {
		entry := value.(*sourceLimiterEntry)
		if entry.lastUsed.Before(cutoff) {
			l.sourceLimiters.Delete(key)
		}
		return true
	})
}

func (l *Log) collectBatch(batch []Event) []Event {
	head := atomic.LoadUint64(&l.writeHead)
	tail := atomic.LoadUint64(&l.readHead)

	for i := tail; i < head && len(batch) < BatchFlushSize; i++ {
		idx := i % BufferSize
		batch = append(batch, l.buffer[idx])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&l.readHead, uint64(len(batch)))
	}
	return batch
}

func (l *Log) flushBatch(batch []Event) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if l.file == nil {
		return
	}
	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}
}
