package timedex

import (
	"time"

	"github.com/pkg/errors"
)

// Config holds the network-wide constants governing a dataset. They are
// fixed at dataset genesis and read-only for the life of the process:
// validators must be able to replay any record under the parameters in
// force when it was created, so changing them means starting a new
// dataset namespace and cross-linking from the old one, never mutating
// in place.
type Config struct {
	// Interval is the exact width of every chunk.
	Interval time.Duration

	// DirectLimit is the maximum number of direct attachment edges one
	// author may place on one chunk.
	DirectLimit int

	// SpamLimit is the maximum total attachments (direct plus overflow
	// chain) one author may place on one chunk.
	SpamLimit int
}

// DefaultConfig returns the stock parameters: 100-second chunks, five
// direct links per author per chunk, twenty attachments total.
func DefaultConfig() Config {
	return Config{
		Interval:    100 * time.Second,
		DirectLimit: 5,
		SpamLimit:   20,
	}
}

// Validate reports whether the parameters are usable.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New("config: interval must be positive")
	}
	if c.DirectLimit <= 0 {
		return errors.New("config: direct link limit must be positive")
	}
	if c.SpamLimit < c.DirectLimit {
		return errors.New("config: spam limit must be at least the direct link limit")
	}
	return nil
}
