// Package dataset persists the entries file and mirrors it to the optional
// object storage, SQL and calendar outputs.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/hash/sha256"
)

// ErrNoEntries is returned when a sink is asked to write a nil dataset.
var ErrNoEntries = errors.New("dataset: no entries")

// Sink receives the complete dataset after each pipeline stage.
type Sink interface {
	Write(ctx context.Context, e entries.Entries) error
}

// Encode renders e the way the entries file is stored: indented JSON with
// meets and events in key order.
func Encode(e entries.Entries) ([]byte, error) {
	if e == nil {
		return nil, ErrNoEntries
	}
	payload, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return payload, nil
}

// Digest is the hex SHA-256 of the encoded dataset.
func Digest(e entries.Entries) (string, error) {
	payload, err := Encode(e)
	if err != nil {
		return "", err
	}
	return sha256.New().Hash(payload), nil
}

// Load reads a previously written entries file. A missing or malformed file
// is an error.
func Load(path string) (entries.Entries, error) {
	// #nosec G304 -- path comes from operator configuration.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entries %s: %w", path, err)
	}
	var e entries.Entries
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode entries %s: %w", path, err)
	}
	if e == nil {
		return nil, fmt.Errorf("decode entries %s: %w", path, ErrNoEntries)
	}
	return e, nil
}

// MultiSink writes to each sink in order and stops at the first failure.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, e entries.Entries) error {
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
