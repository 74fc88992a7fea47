package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"orbot/internal/domain"
)

// Archiver implements domain.Archiver by serializing the end-of-session
// archive to JSON and uploading it as a single object under sessions/.
// Uploading the same session date twice overwrites the previous object.
type Archiver struct {
	writer *Writer
}

// NewArchiver creates a new Archiver that uploads via the given writer.
func NewArchiver(writer *Writer) *Archiver {
	return &Archiver{writer: writer}
}

// archiveKey returns the object key for a session date (YYYY-MM-DD).
func archiveKey(date string) string {
	return "sessions/" + date + ".json"
}

// Archive uploads the session archive.
func (a *Archiver) Archive(ctx context.Context, archive domain.SessionArchive) error {
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal session archive %s: %w", archive.Date, err)
	}

	key := archiveKey(archive.Date)
	if err := a.writer.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive session %s: %w", archive.Date, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
