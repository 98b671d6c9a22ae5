package slideshow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

var ingestExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true, ".heif": true,
}

// Scan treats dir as the authoritative ingest set (§6 Input side):
// every file with a recognized extension is (re-)offered to Add. Add's own
// deduplication means re-scanning an unchanged directory is a no-op for
// files already in the cache.
func (e *Engine) Scan(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if de.IsDir() || !ingestExtensions[strings.ToLower(filepath.Ext(de.Name()))] {
			continue
		}
		path := filepath.Join(dir, de.Name())
		if err := e.Add(ctx, path); err != nil {
			e.logger.Warn().Err(err).Str("path", path).Msg("slideshow: scan add failed")
		}
	}
	return nil
}

// Watch watches dir for create/write events and incrementally ingests new
// or modified images, rate-limited so a burst of file writes (e.g. an
// rsync batch) doesn't starve the codec worker pool (§5 worker pool
// admission). It blocks until ctx is done or Stop is called.
func (e *Engine) Watch(ctx context.Context, dir string, limiter *rate.Limiter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 5)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.stop:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !ingestExtensions[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			if err := e.Add(ctx, ev.Name); err != nil {
				e.logger.Debug().Err(err).Str("path", ev.Name).Msg("slideshow: watch add failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn().Err(err).Msg("slideshow: watcher error")
		}
	}
}
