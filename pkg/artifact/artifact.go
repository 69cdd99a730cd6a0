// Package artifact delivers rendered exports to their destination: a local
// directory or an S3-compatible bucket.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/matzehuels/carepath/pkg/printlayout"
)

// Destination stores one export artifact and returns where it went.
type Destination interface {
	Write(ctx context.Context, name string, f printlayout.Format, data []byte) (string, error)
}

// FileName turns a title into a file name stem: lower case, ASCII letters and
// digits, words joined by dashes. An empty result becomes "flowchart".
func FileName(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		return "flowchart"
	}
	return name
}

// FileDestination writes artifacts into a directory.
type FileDestination struct {
	dir string
}

// NewFileDestination creates dir if needed.
func NewFileDestination(dir string) (*FileDestination, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileDestination{dir: dir}, nil
}

// Write stores data as <dir>/<name>.<format> and returns the path.
func (d *FileDestination) Write(_ context.Context, name string, f printlayout.Format, data []byte) (string, error) {
	path := filepath.Join(d.dir, name+"."+string(f))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

var _ Destination = (*FileDestination)(nil)
