// Package persist keeps the last submitted pipeline so it survives a
// restart of the editor.
//
// A [Record] holds the snapshot, the validation response and the time it was
// saved. Backends implement [Store]:
//
//   - [FileStore]: JSON files in the user config directory
//   - [RedisStore]: a shared Redis instance
//   - [MongoStore]: a MongoDB collection, one document per key
//   - [NullStore]: persistence disabled
//
// Persistence is best-effort. Callers log failures and carry on; nothing in
// the editor waits on it.
package persist

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/graph"
)

// DefaultKey is the key of the most recent submission.
const DefaultKey = "pipeline:last"

// Response is the validation service's answer to a submission.
type Response struct {
	NumNodes int  `json:"num_nodes" bson:"num_nodes" yaml:"num_nodes"`
	NumEdges int  `json:"num_edges" bson:"num_edges" yaml:"num_edges"`
	IsDAG    bool `json:"is_dag" bson:"is_dag" yaml:"is_dag"`
}

// Record is one persisted submission.
type Record struct {
	Nodes    []graph.Node `json:"nodes" bson:"nodes"`
	Edges    []graph.Edge `json:"edges" bson:"edges"`
	Response *Response    `json:"response,omitempty" bson:"response,omitempty"`
	SavedAt  time.Time    `json:"savedAt" bson:"saved_at"`
}

// NewRecord builds a record stamped with the current time.
func NewRecord(snap graph.Snapshot, resp *Response) Record {
	snap = snap.Clone()
	return Record{
		Nodes:    snap.Nodes,
		Edges:    snap.Edges,
		Response: resp,
		SavedAt:  time.Now().UTC(),
	}
}

// Snapshot returns the record's graph.
func (r Record) Snapshot() graph.Snapshot {
	return graph.Snapshot{Nodes: r.Nodes, Edges: r.Edges}.Clone()
}

// Store is a persistence backend.
type Store interface {
	// Save stores rec under key, replacing any previous record.
	Save(ctx context.Context, key string, rec Record) error

	// Load returns the record under key, or nil, nil if there is none.
	Load(ctx context.Context, key string) (*Record, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// SessionKey returns the key of an editor session. An empty id means the
// shared DefaultKey.
func SessionKey(id string) string {
	if id == "" {
		return DefaultKey
	}
	return "pipeline:" + id
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidateKey rejects keys that cannot be stored safely by every backend.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New(errors.ErrCodeInvalidInput, "persistence key cannot be empty")
	}
	if len(key) > 200 {
		return errors.New(errors.ErrCodeInvalidInput, "persistence key too long")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return errors.New(errors.ErrCodeInvalidInput, "invalid persistence key: %q", key)
	}
	return nil
}
