package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pipebuilder/pkg/errors"
)

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// MarshalSnapshot converts a snapshot to indented JSON bytes.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSnapshot(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalSnapshot decodes and validates JSON snapshot bytes.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	return ReadSnapshot(bytes.NewReader(data))
}

// WriteSnapshot writes a snapshot as JSON to an io.Writer.
func WriteSnapshot(s Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a JSON snapshot and validates its structure.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode snapshot")
	}
	return s, Validate(s)
}

// WriteSnapshotFile writes a snapshot to path. Files ending in .yaml or
// .yml are written as YAML, everything else as JSON.
func WriteSnapshotFile(s Snapshot, path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(normalize(s)); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	}
	return WriteSnapshot(s, f)
}

// ReadSnapshotFile reads a JSON or YAML snapshot file.
func ReadSnapshotFile(path string) (Snapshot, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Snapshot{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "snapshot %s", path)
		}
		return Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if !isYAML(path) {
		return ReadSnapshot(f)
	}
	var s Snapshot
	if err := yaml.NewDecoder(f).Decode(&s); err != nil && err != io.EOF {
		return Snapshot{}, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode snapshot")
	}
	return s, Validate(s)
}

// Hash returns a content hash of the snapshot. Snapshots that serialize to
// the same JSON have the same hash.
func Hash(s Snapshot) string {
	data, _ := json.Marshal(normalize(s))
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structural rules of a snapshot: node ids that are
// non-empty, unique and free of the edge id separators ':' and '>', unique
// edge ids, and edges whose endpoints exist.
func Validate(s Snapshot) error {
	nodes := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidSnapshot, "node %d has no id", i)
		}
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return err
		}
		if n.Type == "" {
			return errors.New(errors.ErrCodeInvalidSnapshot, "node %s has no type", n.ID)
		}
		if nodes[n.ID] {
			return errors.New(errors.ErrCodeInvalidSnapshot, "duplicate node id %s", n.ID)
		}
		nodes[n.ID] = true
	}

	edges := make(map[string]bool, len(s.Edges))
	for _, e := range s.Edges {
		if !nodes[e.Source] || !nodes[e.Target] {
			return errors.New(errors.ErrCodeInvalidSnapshot, "edge %s references a missing node", e.ID)
		}
		if e.ID != "" {
			if edges[e.ID] {
				return errors.New(errors.ErrCodeInvalidSnapshot, "duplicate edge id %s", e.ID)
			}
			edges[e.ID] = true
		}
	}
	return nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

// normalize replaces nil slices and maps so the wire format always carries
// arrays and objects.
func normalize(s Snapshot) Snapshot {
	out := Snapshot{Nodes: make([]Node, len(s.Nodes)), Edges: s.Edges}
	for i, n := range s.Nodes {
		if n.Data == nil {
			n.Data = map[string]any{}
		}
		out.Nodes[i] = n
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
