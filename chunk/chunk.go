// Package chunk owns chunk identity, validation and time-window lookup.
//
// A chunk is a pure value: the pair of its interval boundaries. Identical
// boundaries encode to identical blobs and therefore the same ref, so any
// number of writers racing to create "the chunk for 12:03" collapse into
// one logical record with no coordination.
package chunk

import (
	"time"

	"github.com/graphtide/timedex"
)

// Chunk is an immutable, time-bounded bucket serving as the attachment
// point for links within [From, Until).
type Chunk struct {
	From  time.Time
	Until time.Time
}

// chunkRecord is the canonical stored form: Unix nanoseconds, UTC.
type chunkRecord struct {
	Type  string `json:"type"`
	From  int64  `json:"from"`
	Until int64  `json:"until"`
}

func (c Chunk) record() chunkRecord {
	return chunkRecord{Type: "chunk", From: c.From.UnixNano(), Until: c.Until.UnixNano()}
}

func fromRecord(rec chunkRecord) Chunk {
	return Chunk{
		From:  time.Unix(0, rec.From).UTC(),
		Until: time.Unix(0, rec.Until).UTC(),
	}
}

// Blob returns the canonical encoding of the chunk record.
func (c Chunk) Blob() (timedex.Blob, error) {
	return timedex.Marshal(c.record())
}

// Ref returns the chunk's content address. Chunk identity is pure data:
// no store access is needed to know where a chunk lives.
func (c Chunk) Ref() timedex.Ref {
	return timedex.MustRef(c.record())
}

// anchorRecord is the singleton, well-known genesis anchor. It is not
// time-addressed; its hash is computable by anyone.
type anchorRecord struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func genesisAnchor() anchorRecord {
	return anchorRecord{Type: "anchor", Name: "genesis"}
}

// AnchorRef returns the well-known ref of the genesis anchor.
func AnchorRef() timedex.Ref {
	return timedex.MustRef(genesisAnchor())
}
