// Package spool ingests documents dropped into a directory. Each *.json file
// holds one IngestRequest or an array of them. Files are ingested after
// writes settle and then moved to processed/ or failed/.
package spool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/ingestion"
)

const (
	defaultDebounce = 400 * time.Millisecond
	processedDir    = "processed"
	failedDir       = "failed"
)

// Ingester is satisfied by the publisher package's Publisher and Direct.
type Ingester interface {
	Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error)
}

// Result counts the requests of one spool file.
type Result struct {
	Accepted int
	Rejected int
}

type Spool struct {
	dir      string
	ingester Ingester
	debounce time.Duration
	logger   *slog.Logger

	procMu sync.Mutex

	mu     sync.Mutex
	timers map[string]*time.Timer
}

type Option func(*Spool)

func WithDebounce(d time.Duration) Option {
	return func(s *Spool) {
		if d > 0 {
			s.debounce = d
		}
	}
}

func New(dir string, ingester Ingester, opts ...Option) *Spool {
	s := &Spool{
		dir:      filepath.Clean(dir),
		ingester: ingester,
		debounce: defaultDebounce,
		logger:   slog.Default().With("component", "spool", "dir", dir),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ingests files already in the directory in name order, then watches
// for new ones until ctx is cancelled.
func (s *Spool) Run(ctx context.Context) error {
	for _, sub := range []string{s.dir, filepath.Join(s.dir, processedDir), filepath.Join(s.dir, failedDir)} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return fmt.Errorf("creating spool directory: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}

	if err := s.processExisting(ctx); err != nil {
		return err
	}
	s.logger.Info("spool watching")

	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			s.logger.Info("spool stopping", "reason", ctx.Err())
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && isSpoolFile(ev.Name) {
				s.schedule(ctx, ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

func (s *Spool) processExisting(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading spool directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isSpoolFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return nil
		}
		s.process(ctx, filepath.Join(s.dir, name))
	}
	return nil
}

// schedule processes path once no event for it arrived for the debounce
// interval.
func (s *Spool) schedule(ctx context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[path]; ok {
		t.Stop()
	}
	s.timers[path] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, path)
		s.mu.Unlock()
		if ctx.Err() == nil {
			s.process(ctx, path)
		}
	})
}

func (s *Spool) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, t := range s.timers {
		t.Stop()
		delete(s.timers, path)
	}
}

func (s *Spool) process(ctx context.Context, path string) {
	s.procMu.Lock()
	defer s.procMu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return
	}
	res, err := s.ProcessFile(ctx, path)
	dest := processedDir
	if err != nil || res.Rejected > 0 {
		dest = failedDir
	}
	if err != nil {
		s.logger.Error("spool file failed", "file", filepath.Base(path), "error", err)
	} else {
		s.logger.Info("spool file ingested",
			"file", filepath.Base(path),
			"accepted", res.Accepted,
			"rejected", res.Rejected,
		)
	}
	target := filepath.Join(s.dir, dest, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		s.logger.Error("moving spool file", "file", filepath.Base(path), "error", err)
	}
}

// ProcessFile ingests every request in path in order. Rejected requests are
// logged and counted; an unreadable or undecodable file is an error.
func (s *Spool) ProcessFile(ctx context.Context, path string) (Result, error) {
	var res Result
	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("reading spool file: %w", err)
	}
	reqs, err := decode(data)
	if err != nil {
		return res, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := s.ingester.Ingest(ctx, &reqs[i]); err != nil {
			res.Rejected++
			s.logger.Warn("spool document rejected",
				"file", filepath.Base(path),
				"doc_id", reqs[i].ID,
				"error", err,
			)
			continue
		}
		res.Accepted++
	}
	return res, nil
}

func decode(data []byte) ([]ingestion.IngestRequest, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var reqs []ingestion.IngestRequest
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			return nil, err
		}
		return reqs, nil
	}
	var req ingestion.IngestRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, err
	}
	return []ingestion.IngestRequest{req}, nil
}

func isSpoolFile(path string) bool {
	name := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(name), ".json") && !strings.HasPrefix(name, ".")
}
