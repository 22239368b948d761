package download

import (
	"context"
	"fmt"
	"path/filepath"

	"subgrab/internal/fileutil"
)

// SRTMediaType is passed to savers for converted files.
const SRTMediaType = "text/srt"

// Saver persists a finished file.
type Saver interface {
	Save(ctx context.Context, data []byte, filename, mediaType string) (string, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, data []byte, filename, mediaType string) (string, error)

func (f SaverFunc) Save(ctx context.Context, data []byte, filename, mediaType string) (string, error) {
	return f(ctx, data, filename, mediaType)
}

// DirSaver writes files atomically into Dir.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(_ context.Context, data []byte, filename, _ string) (string, error) {
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	path := filepath.Join(d.Dir, filename)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", filename, err)
	}
	return path, nil
}
