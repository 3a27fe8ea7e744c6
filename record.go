package timedex

import (
	"context"
	"encoding/json"

	"github.com/gibson042/canonicaljson-go"
	"github.com/pkg/errors"
)

// Records are canonical-JSON blobs: two writers independently encoding
// the same value produce byte-identical blobs and therefore the same ref.
// That property is what lets concurrent chunk creation deduplicate with
// no coordination.

// Marshal encodes a record value into its canonical blob form.
func Marshal(v interface{}) (Blob, error) {
	b, err := canonicaljson.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "canonical encoding")
	}
	return Blob(b), nil
}

// MustRef computes the ref a record value would have once stored.
// It panics on encoding failure, which only a non-encodable Go type
// can cause.
func MustRef(v interface{}) Ref {
	b, err := Marshal(v)
	if err != nil {
		panic(err)
	}
	return b.Ref()
}

// PutRecord stores the canonical encoding of a record value.
func PutRecord(ctx context.Context, s Store, v interface{}) (Ref, bool, error) {
	b, err := Marshal(v)
	if err != nil {
		return Zero, false, err
	}
	return s.Put(ctx, b)
}

// GetRecord reads the blob at ref and decodes it into v.
// A missing blob is reported as ErrNotFound; a blob that does not decode
// into v is reported as a SerializationError.
func GetRecord(ctx context.Context, g Getter, ref Ref, v interface{}) error {
	b, err := g.Get(ctx, ref)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return SerializationError{Err: err}
	}
	return nil
}
