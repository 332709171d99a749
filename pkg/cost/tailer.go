package cost

import (
	"bytes"
	"os"
	"sync"
	"time"

	"github.com/cuemby/foreman/pkg/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultInterval is the tailer's poll floor; fsnotify only wakes it
// earlier, it never polls less often than this.
const DefaultInterval = 5 * time.Second

type watched struct {
	path   string
	offset int64
}

// Tailer tracks a single poller's worth of per-worker {path, offset}
// pairs, reading and recording newly-appended cost events on each tick.
type Tailer struct {
	pipeline *Pipeline
	interval time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	watches map[string]*watched // worker id -> watch state
	logger  zerolog.Logger
}

// NewTailer returns a Tailer polling at interval (DefaultInterval if zero).
// fsnotify wiring is best-effort: if the watcher can't be created, the
// tailer still runs on its poll ticker alone.
func NewTailer(pipeline *Pipeline, interval time.Duration) *Tailer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	watcher, err := fsnotify.NewWatcher()
	t := &Tailer{
		pipeline: pipeline,
		interval: interval,
		watches:  make(map[string]*watched),
		logger:   log.WithComponent("cost-tailer"),
	}
	if err == nil {
		t.watcher = watcher
	} else {
		t.logger.Warn().Err(err).Msg("fsnotify unavailable, polling only")
	}
	return t
}

// Watch registers workerID's log at path for tailing, starting at offset 0.
func (t *Tailer) Watch(workerID, path string) {
	t.mu.Lock()
	t.watches[workerID] = &watched{path: path}
	t.mu.Unlock()
	if t.watcher != nil {
		_ = t.watcher.Add(path)
	}
}

// Unwatch stops tailing workerID's log.
func (t *Tailer) Unwatch(workerID string) {
	t.mu.Lock()
	w, ok := t.watches[workerID]
	delete(t.watches, workerID)
	t.mu.Unlock()
	if ok && t.watcher != nil {
		_ = t.watcher.Remove(w.path)
	}
}

// Run blocks ticking at t.interval, waking early on fsnotify write events,
// until done is closed.
func (t *Tailer) Run(done <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	if t.watcher != nil {
		events = t.watcher.Events
	}

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			t.tick()
		case <-events:
			t.tick()
		}
	}
}

// tick scans every watched pair once, recording any newly-appended cost
// events. Missing files are ignored; a shrunk file means rotation and
// resets the offset to 0.
func (t *Tailer) tick() {
	t.mu.Lock()
	pairs := make(map[string]*watched, len(t.watches))
	for id, w := range t.watches {
		pairs[id] = w
	}
	t.mu.Unlock()

	for workerID, w := range pairs {
		if err := t.tickOne(workerID, w); err != nil {
			t.logger.Error().Err(err).Str("worker_id", workerID).Msg("cost tail failed, continuing")
		}
	}
}

func (t *Tailer) tickOne(workerID string, w *watched) error {
	info, err := os.Stat(w.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < w.offset {
		w.offset = 0
	}
	if info.Size() == w.offset {
		return nil
	}

	f, err := os.Open(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(w.offset, 0); err != nil {
		return err
	}
	buf := make([]byte, info.Size()-w.offset)
	n, err := f.Read(buf)
	if err != nil {
		return err
	}
	buf = buf[:n]

	// Only consume up to the last complete line: a writer mid-flush can
	// leave a partial JSON line at the end of the read, and ParseChunk
	// silently drops unparseable lines. Advancing past it here would lose
	// it permanently instead of completing it on the next tick.
	consumed := bytes.LastIndexByte(buf, '\n') + 1
	if consumed == 0 {
		return nil
	}
	w.offset += int64(consumed)

	return t.recordChunk(workerID, buf[:consumed])
}

func (t *Tailer) recordChunk(workerID string, chunk []byte) error {
	events := ParseChunk(chunk)
	for _, attrs := range ExtractCosts(events) {
		if _, err := t.pipeline.Record(workerID, attrs); err != nil {
			return err
		}
	}
	return nil
}

// FinalParse reads the whole file at path and records every cost event,
// used once after a worker exits regardless of prior tailing progress.
func (t *Tailer) FinalParse(workerID, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return t.recordChunk(workerID, data)
}
