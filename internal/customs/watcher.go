package customs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"kbsync/internal/config"
	"kbsync/internal/storage"
)

// Watcher polls the inbox directory and imports every supported file it has
// not seen before. Seen files are remembered by content hash, so a renamed
// or re-dropped copy of an already ingested file is skipped.
type Watcher struct {
	svc      *ImportService
	db       *storage.DB
	inbox    string
	interval time.Duration
}

func NewWatcher(svc *ImportService, db *storage.DB, cfg config.Config) *Watcher {
	return &Watcher{
		svc:      svc,
		db:       db,
		inbox:    cfg.CustomsInboxDir,
		interval: time.Duration(cfg.CustomsWatchIntervalSec) * time.Second,
	}
}

// Run polls until the context is cancelled. Individual file failures are
// logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("watching inbox", "dir", w.inbox, "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		slog.Error("inbox scan failed", "dir", w.inbox, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.inbox, entry.Name())
		if !IsSupported(path) {
			continue
		}
		if err := w.ingest(path); err != nil {
			slog.Error("inbox file import failed", "file", entry.Name(), "error", err)
		}
	}
}

func (w *Watcher) ingest(path string) error {
	hash, err := fileHash(path)
	if err != nil {
		return err
	}

	key := "ingested:" + hash
	seen, err := w.db.GetMetadata(key)
	if err != nil {
		return err
	}
	if seen != nil {
		return nil
	}

	slog.Info("new inbox file", "file", filepath.Base(path))
	if _, err := w.svc.ImportFile(path, true); err != nil {
		return err
	}
	return w.db.SetMetadata(key, filepath.Base(path))
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
