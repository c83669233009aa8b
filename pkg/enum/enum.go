// Package enum discovers transcript files on disk.
package enum

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/praetorian-inc/disclose/pkg/transcript"
)

// Enumerator discovers transcripts from a source.
type Enumerator interface {
	// Enumerate yields transcripts from the source. The callback may be invoked
	// concurrently.
	Enumerate(ctx context.Context, callback func(t *transcript.Transcript) error) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// Pattern is the glob that transcript files match (default "*.json").
	Pattern string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// Strict fails enumeration on the first file that is not a valid transcript.
	// Otherwise such files are logged and skipped.
	Strict bool

	Logger logrus.FieldLogger
}

// DefaultPattern matches JSON transcript files.
const DefaultPattern = "*.json"
