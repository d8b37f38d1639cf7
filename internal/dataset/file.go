package dataset

import (
	"context"
	"fmt"

	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/storage/local"
)

// FileSink overwrites the entries file on every write.
type FileSink struct {
	Path string
}

// Write implements Sink.
func (s FileSink) Write(_ context.Context, e entries.Entries) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	if err := local.WriteFile(s.Path, payload); err != nil {
		return fmt.Errorf("write entries: %w", err)
	}
	return nil
}
