package store

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matsen/depviz/internal/gav"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// Record kinds in a snapshot file.
const (
	KindArtifact = "artifact"
	KindEdge     = "edge"
)

// Record is one line of a snapshot: an artifact or an edge.
type Record struct {
	Kind string `json:"kind"`

	GroupID    string `json:"group_id,omitempty"`
	ArtifactID string `json:"artifact_id,omitempty"`
	Version    string `json:"version,omitempty"`

	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Optional *bool  `json:"optional,omitempty"`
}

// ComputeJSONLHash computes a SHA256 hash of a JSONL file's contents.
func ComputeJSONLHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256([]byte{})
			return hex.EncodeToString(h[:]), nil
		}
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Records returns the whole store as snapshot records, artifacts first,
// each in insertion order.
func (d *DB) Records(ctx context.Context) ([]Record, error) {
	arts, err := d.Artifacts(ctx, 0)
	if err != nil {
		return nil, err
	}
	edges, err := d.Edges(ctx, nil)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(arts)+len(edges))
	for _, a := range arts {
		records = append(records, Record{Kind: KindArtifact, GroupID: a.GroupID, ArtifactID: a.ArtifactID, Version: a.Version})
	}
	for _, e := range edges {
		records = append(records, Record{Kind: KindEdge, From: e.FromGAV, To: e.ToGAV, Scope: e.Scope, Optional: e.Optional})
	}
	return records, nil
}

// WriteSnapshot writes the store to a JSONL file atomically.
// Uses temp file + rename for atomic operation.
func (d *DB) WriteSnapshot(ctx context.Context, path string) error {
	records, err := d.Records(ctx)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*.jsonl")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmpFile)
	enc := json.NewEncoder(w)
	for i, record := range records {
		if err := enc.Encode(record); err != nil {
			tmpFile.Close()
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing records: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// ReadSnapshot merges a JSONL snapshot into the store in one transaction.
// Rows already present are left alone and not counted.
func (d *DB) ReadSnapshot(ctx context.Context, r io.Reader) (IngestResult, error) {
	var res IngestResult
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	scanner := bufio.NewScanner(r)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return IngestResult{}, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}

		var created bool
		switch rec.Kind {
		case KindArtifact:
			if rec.GroupID == "" || rec.ArtifactID == "" {
				return IngestResult{}, fmt.Errorf("line %d: artifact without group or artifact id", lineNum)
			}
			created, err = upsertArtifact(ctx, tx, gav.New(rec.GroupID, rec.ArtifactID, rec.Version))
			if created {
				res.NewArtifacts++
			}
		case KindEdge:
			if rec.From == "" || rec.To == "" {
				return IngestResult{}, fmt.Errorf("line %d: edge without endpoints", lineNum)
			}
			created, err = insertEdge(ctx, tx, Edge{FromGAV: rec.From, ToGAV: rec.To, Scope: rec.Scope, Optional: rec.Optional})
			if created {
				res.NewEdges++
			}
		default:
			return IngestResult{}, fmt.Errorf("line %d: unknown record kind %q", lineNum, rec.Kind)
		}
		if err != nil {
			return IngestResult{}, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return IngestResult{}, fmt.Errorf("reading snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return IngestResult{}, fmt.Errorf("committing transaction: %w", err)
	}
	return res, nil
}
