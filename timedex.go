// Package timedex describes a time-chunked link index over a
// content-addressable graph store.
//
// Many independent writers attaching links to one popular record
// concentrate load on the nodes owning that record's address. The index
// spreads attachment points across time-delimited chunks, each addressed
// through a depth-pruned time-path tree, and bounds how many links any
// single author may hang directly off one chunk before overflowing into a
// per-author chain. Everything is an immutable, content-hashed record or
// an append-only edge, so any validator can re-derive the whole structure
// from the public data alone.
package timedex

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

type (
	// Blob is the type of a stored record's bytes.
	Blob []byte

	// Ref is the ref of a blob: its sha256 hash.
	Ref [sha256.Size]byte
)

// Ref computes the Ref of a blob.
func (b Blob) Ref() Ref {
	return sha256.Sum256(b)
}

// Zero is the zero value of a Ref.
var Zero Ref

func (r Ref) String() string {
	return hex.EncodeToString(r[:])
}

func (r Ref) Less(other Ref) bool {
	return bytes.Compare(r[:], other[:]) < 0
}

func (r *Ref) FromHex(s string) error {
	if len(s) != 2*sha256.Size {
		return errors.New("wrong length")
	}
	_, err := hex.Decode(r[:], []byte(s))
	return err
}

func RefFromBytes(b []byte) Ref {
	var out Ref
	copy(out[:], b)
	return out
}

func RefFromHex(s string) (Ref, error) {
	var out Ref
	err := out.FromHex(s)
	return out, err
}
