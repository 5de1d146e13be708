// Package archive periodically uploads gzipped JSON snapshots of every stored
// submission to object storage.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Lemmmy/SCHardwareSurvey/internal/metrics"
	"github.com/Lemmmy/SCHardwareSurvey/internal/model"
)

const uploadTimeout = 5 * time.Minute

// Source lists the submissions to snapshot.
type Source interface {
	List(ctx context.Context) ([]model.Submission, error)
}

// Uploader stores an encoded snapshot under name and returns the key it was
// written to.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Manager uploads a snapshot on start and then once per interval.
type Manager struct {
	source   Source
	uploader Uploader
	interval time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManager(source Source, uploader Uploader, interval time.Duration, logger zerolog.Logger, m *metrics.Metrics) (*Manager, error) {
	if source == nil || uploader == nil {
		return nil, fmt.Errorf("archive: source and uploader are required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("archive: interval must be positive, got %s", interval)
	}
	return &Manager{
		source:   source,
		uploader: uploader,
		interval: interval,
		logger:   logger.With().Str("component", "archive").Logger(),
		metrics:  m,
		now:      time.Now,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the snapshot loop in the background until Stop is called.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.loop()
}

func (m *Manager) loop() {
	defer m.wg.Done()
	m.runLogged()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.runLogged()
		case <-m.done:
			return
		}
	}
}

func (m *Manager) runLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	go func() {
		select {
		case <-m.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	if _, err := m.RunOnce(ctx); err != nil {
		m.logger.Error().Err(err).Msg("snapshot failed")
	}
}

// RunOnce uploads one snapshot and returns its key.
func (m *Manager) RunOnce(ctx context.Context) (string, error) {
	subs, err := m.source.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list submissions: %w", err)
	}
	data, err := Encode(subs)
	if err != nil {
		return "", err
	}
	key, err := m.uploader.Upload(ctx, SnapshotName(m.now(), uuid.New()), data)
	m.metrics.ArchiveUpload(err)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	m.logger.Info().Str("key", key).Int("submissions", len(subs)).Int("bytes", len(data)).Msg("uploaded snapshot")
	return key, nil
}

// Stop ends the loop and waits for an upload in progress to return.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}

// Encode writes subs as a gzipped JSON array. Tokens and ids are not part of
// the encoding.
func Encode(subs []model.Submission) ([]byte, error) {
	if subs == nil {
		subs = []model.Submission{}
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(subs); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a snapshot written by Encode.
func Decode(data []byte) ([]model.Submission, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var subs []model.Submission
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return subs, nil
}
