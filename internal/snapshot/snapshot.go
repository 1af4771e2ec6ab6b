// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package snapshot periodically dumps coordinator state to a JSON file.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/feedpool/internal/coordinator"
	"github.com/ManuGH/feedpool/internal/log"
)

// FormatVersion is bumped on incompatible Document changes.
const FormatVersion = 1

// Source is the coordinator view that gets written.
type Source interface {
	Snapshot(ctx context.Context) (coordinator.Snapshot, error)
}

// Document is the on-disk form.
type Document struct {
	FormatVersion int                  `json:"formatVersion"`
	Version       string               `json:"version,omitempty"`
	WrittenAt     time.Time            `json:"writtenAt"`
	State         coordinator.Snapshot `json:"state"`
}

type Writer struct {
	path     string
	interval time.Duration
	version  string
	src      Source
	now      func() time.Time
	logger   zerolog.Logger
}

func NewWriter(path string, interval time.Duration, version string, src Source) *Writer {
	return &Writer{
		path:     path,
		interval: interval,
		version:  version,
		src:      src,
		now:      time.Now,
		logger:   log.WithComponent("snapshot"),
	}
}

// WriteOnce takes one snapshot and replaces the file atomically.
func (w *Writer) WriteOnce(ctx context.Context) error {
	state, err := w.src.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("take snapshot: %w", err)
	}
	doc := Document{
		FormatVersion: FormatVersion,
		Version:       w.version,
		WrittenAt:     w.now().UTC(),
		State:         state,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := writeAtomic(ctx, w.path, data); err != nil {
		return err
	}
	w.logger.Debug().
		Str(log.FieldEvent, "snapshot.written").
		Str(log.FieldPath, w.path).
		Int("items", len(state.Items)).
		Msg("snapshot written")
	return nil
}

// Run writes a snapshot every interval until ctx is done. Write failures are
// logged and retried on the next tick.
func (w *Writer) Run(ctx context.Context) error {
	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := w.WriteOnce(ctx); err != nil {
				if errors.Is(err, coordinator.ErrStopped) || ctx.Err() != nil {
					return nil
				}
				w.logger.Warn().Err(err).
					Str(log.FieldEvent, "snapshot.write_failed").
					Str(log.FieldPath, w.path).
					Msg("snapshot write failed")
			}
		}
	}
}

// Read loads a snapshot file written by Writer.
func Read(path string) (Document, error) {
	var doc Document
	// #nosec G304 -- path comes from operator config
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.FormatVersion != FormatVersion {
		return doc, fmt.Errorf("unsupported snapshot format %d", doc.FormatVersion)
	}
	return doc, nil
}
