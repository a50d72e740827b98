package store

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// File persists each record as a JSON file under a base location. Writes go
// through a temp file and rename so a crashed write never leaves a truncated
// record behind.
type File struct {
	baseURL string
	fs      afs.Service
}

// NewFile creates a file-backed storage rooted at baseURL (a directory path or
// any afs-supported URL).
func NewFile(baseURL string) *File {
	return &File{baseURL: baseURL, fs: afs.New()}
}

func (f *File) recordURL(key string) string {
	return url.Join(f.baseURL, key+".json")
}

// Load implements Storage.
func (f *File) Load(ctx context.Context, key string) ([]byte, error) {
	URL := f.recordURL(key)
	ok, err := f.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check record %v: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	data, err := f.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load record %v: %w", key, err)
	}
	return data, nil
}

// Save implements Storage.
func (f *File) Save(ctx context.Context, key string, data []byte) error {
	URL := f.recordURL(key)
	tmp := URL + ".tmp"
	if err := f.fs.Upload(ctx, tmp, os.FileMode(0o600), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record %v: %w", key, err)
	}
	if err := f.fs.Move(ctx, tmp, URL); err != nil {
		return fmt.Errorf("failed to finalise record %v: %w", key, err)
	}
	return nil
}

// Delete implements Storage.
func (f *File) Delete(ctx context.Context, key string) error {
	URL := f.recordURL(key)
	ok, err := f.fs.Exists(ctx, URL)
	if err != nil || !ok {
		return err
	}
	return f.fs.Delete(ctx, URL)
}
