package match

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"quidditch/internal/sim"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024                   // Circular buffer size
	MaxEventsPerSec      = 2000                   // Global rate limit
	MaxEventsPerPlayer   = 120                    // Per-player rate limit per second
	BatchFlushSize       = 64                     // Events per batch write
	BatchFlushInterval   = 100 * time.Millisecond // How often to flush
	PlayerLimiterCleanup = 5 * time.Minute        // Cleanup interval for player limiters
)

// EventLog is a bounded, rate-limited event log with an async JSONL writer.
// A slow or vanished disk never blocks the match loop: the oldest unwritten
// events are dropped instead.
type EventLog struct {
	mu     sync.Mutex
	buffer [EventBufferSize]Event
	head   uint64 // next sequence to write
	tail   uint64 // next sequence to flush

	// Rate limiting keeps a tackle storm from flooding the log
	globalLimiter  *rate.Limiter
	playerLimiters sync.Map // map[sim.PlayerID]*playerLimiterEntry

	// Async writer
	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	// File output
	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
	writtenCount atomic.Uint64
}

// playerLimiterEntry tracks per-player rate limiting
type playerLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// LogStats is a point-in-time view of the log counters.
type LogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Written uint64 `json:"written"`
	Pending uint64 `json:"pending"`
	Running bool   `json:"running"`
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer goroutine. An empty path keeps events in
// memory only.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open event log %s: %w", filePath, err)
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()

	log.Info("📝 Event log started", "path", filePath)
	return nil
}

// Stop flushes outstanding events and closes the file. It is safe to call
// more than once.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		wasRunning := el.running.Swap(false)
		close(el.stopChan)
		if !wasRunning {
			return
		}
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			if err := el.file.Close(); err != nil {
				log.Warn("event log close failed", "err", err)
			}
			el.file = nil
		}
		el.fileMu.Unlock()
	})
}

// Emit adds an event with rate limiting.
// Returns false if the log is stopped or the event was rate limited.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}
	if event.PlayerID != sim.NoPlayer {
		if !el.getPlayerLimiter(event.PlayerID).Allow() {
			el.droppedCount.Add(1)
			return false
		}
	}

	el.mu.Lock()
	el.head++
	event.Sequence = el.head
	if el.head-el.tail > EventBufferSize {
		// Overwrite the oldest unflushed event
		el.tail++
		el.droppedCount.Add(1)
	}
	el.buffer[el.head%EventBufferSize] = event
	el.mu.Unlock()

	el.totalCount.Add(1)
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, playerID sim.PlayerID, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, tickNum, playerID, payload))
}

// Recent returns up to n of the newest events still in the buffer, oldest first.
func (el *EventLog) Recent(n int) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	avail := el.head
	if avail > EventBufferSize {
		avail = EventBufferSize
	}
	if uint64(n) > avail {
		n = int(avail)
	}
	out := make([]Event, 0, n)
	for seq := el.head - uint64(n) + 1; seq <= el.head && n > 0; seq++ {
		out = append(out, el.buffer[seq%EventBufferSize])
	}
	return out
}

// getPlayerLimiter returns/creates a per-player rate limiter
func (el *EventLog) getPlayerLimiter(id sim.PlayerID) *rate.Limiter {
	now := time.Now().UnixNano()
	if entry, ok := el.playerLimiters.Load(id); ok {
		e := entry.(*playerLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &playerLimiterEntry{limiter: rate.NewLimiter(MaxEventsPerPlayer, MaxEventsPerPlayer/10)}
	entry.lastUsed.Store(now)
	actual, _ := el.playerLimiters.LoadOrStore(id, entry)
	return actual.(*playerLimiterEntry).limiter
}

// writerLoop batches and writes events to disk asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			// Drain everything before exit
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// cleanupLoop removes stale player limiters
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(PlayerLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupPlayerLimiters(time.Now().Add(-PlayerLimiterCleanup))
		}
	}
}

func (el *EventLog) cleanupPlayerLimiters(cutoff time.Time) {
	el.playerLimiters.Range(func(key, value interface{}) bool {
		entry := value.(*playerLimiterEntry)
		if entry.lastUsed.Load() < cutoff.UnixNano() {
			el.playerLimiters.Delete(key)
		}
		return true
	})
}

// collectBatch reads available events from the circular buffer
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.tail < el.head && len(batch) < BatchFlushSize {
		el.tail++
		batch = append(batch, el.buffer[el.tail%EventBufferSize])
	}
	return batch
}

// flushBatch writes events to disk (append-only, newline-delimited JSON)
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			log.Warn("event encode failed", "type", event.Type, "err", err)
			continue
		}
		data = append(data, '\n')
		if _, err := el.file.Write(data); err != nil {
			log.Warn("event write failed", "path", el.filePath, "err", err)
			return
		}
		el.writtenCount.Add(1)
	}
}

// Stats returns counters for monitoring
func (el *EventLog) Stats() LogStats {
	el.mu.Lock()
	pending := el.head - el.tail
	el.mu.Unlock()

	return LogStats{
		Total:   el.totalCount.Load(),
		Dropped: el.droppedCount.Load(),
		Written: el.writtenCount.Load(),
		Pending: pending,
		Running: el.running.Load(),
	}
}
