package cache

import "strings"

// Keyer derives cache keys.
type Keyer interface {
	// ValidationKey identifies the response of endpoint for a snapshot hash.
	ValidationKey(endpoint, snapshotHash string) string
	// ArtifactKey identifies a rendered artifact of a snapshot.
	ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change the output bytes.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Direction string `json:"direction,omitempty"`
	Detailed  bool   `json:"detailed,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ValidationKey returns "validation:<hash(endpoint, snapshotHash)>". The
// endpoint is normalized so "http://h/" and "http://h" share entries.
func (DefaultKeyer) ValidationKey(endpoint, snapshotHash string) string {
	return hashKey("validation", strings.TrimRight(endpoint, "/"), snapshotHash)
}

// ArtifactKey returns "artifact:<hash(snapshotHash, opts)>".
func (DefaultKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", snapshotHash, opts)
}
