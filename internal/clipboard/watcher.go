// Package clipboard tracks screenshot captures dropped into a watch
// directory. The OS screenshot tool (or a paste helper) writes image files
// there; the watcher notices new ones, deduplicates re-writes of identical
// content, and publishes the latest capture for the ask flow to attach.
package clipboard

import (
	"context"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval paces the fallback scan used when an fsnotify watch
// cannot be established on the capture directory.
const DefaultPollInterval = 2 * time.Second

// settleDelay gives the screenshot tool time to finish writing before the
// file is hashed. Partially written files hash differently and would defeat
// dedupe.
const settleDelay = 150 * time.Millisecond

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Capture is one observed screenshot.
type Capture struct {
	Path string
	Hash uint64
	At   time.Time
}

// Watcher observes a capture directory and publishes new screenshots.
// Content is deduplicated by hash, so re-saving the same image does not
// re-trigger.
type Watcher struct {
	dir      string
	interval time.Duration
	logger   *log.Logger

	events chan Capture

	mu       sync.Mutex
	latest   *Capture
	lastHash uint64
	hasHash  bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New prepares a watcher over dir. Start must be called to begin observing.
func New(dir string) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "watch", Path: dir, Err: os.ErrInvalid}
	}
	return &Watcher{
		dir:      dir,
		interval: DefaultPollInterval,
		logger:   log.With("component", "clipboard"),
		events:   make(chan Capture, 8),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// SetPollInterval overrides the fallback polling cadence. Only effective
// before Start.
func (w *Watcher) SetPollInterval(d time.Duration) {
	if d > 0 {
		w.interval = d
	}
}

// Start begins observing in a background goroutine. It prefers an fsnotify
// watch and degrades to interval polling if one cannot be established.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		defer close(w.events)

		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			err = watcher.Add(w.dir)
		}
		if err != nil {
			w.logger.Warn("directory watch unavailable, falling back to polling", "dir", w.dir, "error", err)
			if watcher != nil {
				watcher.Close()
			}
			w.pollLoop(ctx)
			return
		}
		defer watcher.Close()
		w.watchLoop(ctx, watcher)
	}()
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isImagePath(event.Name) {
				continue
			}
			// Let the writer finish before hashing.
			select {
			case <-time.After(settleDelay):
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			}
			w.consider(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			if path, ok := w.newestImage(); ok {
				w.consider(path)
			}
		}
	}
}

// newestImage finds the most recently modified image file in the directory.
func (w *Watcher) newestImage() (string, bool) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to scan capture directory", "error", err)
		return "", false
	}
	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !isImagePath(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(w.dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	return newest, newest != ""
}

// consider hashes path and publishes it if the content is new.
func (w *Watcher) consider(path string) {
	hash, err := hashFile(path)
	if err != nil {
		w.logger.Debug("failed to hash capture", "path", path, "error", err)
		return
	}

	w.mu.Lock()
	if w.hasHash && w.lastHash == hash {
		w.mu.Unlock()
		return
	}
	capture := Capture{Path: path, Hash: hash, At: time.Now()}
	w.lastHash = hash
	w.hasHash = true
	w.latest = &capture
	w.mu.Unlock()

	w.logger.Info("new capture", "path", path)

	// Never block the watch loop on a slow consumer; Latest still holds the
	// capture if the channel is full.
	select {
	case w.events <- capture:
	default:
	}
}

// Events delivers new captures. The channel is closed when the watcher
// stops; slow consumers may miss intermediate captures but Latest always
// reflects the newest one.
func (w *Watcher) Events() <-chan Capture {
	return w.events
}

// Latest returns the most recent capture without consuming it.
func (w *Watcher) Latest() (Capture, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest == nil {
		return Capture{}, false
	}
	return *w.latest, true
}

// Take returns the most recent capture and clears the slot so the same
// screenshot is not attached to two questions.
func (w *Watcher) Take() (Capture, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest == nil {
		return Capture{}, false
	}
	capture := *w.latest
	w.latest = nil
	return capture, true
}

// Stop terminates the background goroutine and waits for it to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func isImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// hashFile computes an FNV-64a content hash.
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := fnv.New64a()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
