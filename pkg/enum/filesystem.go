package enum

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/disclose/pkg/log"
	"github.com/praetorian-inc/disclose/pkg/transcript"
)

// Raw transcript pairs are stored as NAME.sent next to NAME.received.
const (
	sentSuffix     = ".sent"
	receivedSuffix = ".received"
)

// FilesystemEnumerator enumerates transcript files from a filesystem directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	if config.Pattern == "" {
		config.Pattern = DefaultPattern
	}
	config.Logger = log.OrDiscard(config.Logger)
	return &FilesystemEnumerator{config: config}
}

// fileEntry holds metadata collected during the walk phase.
type fileEntry struct {
	path string
	// received is set for a raw pair; path is then the .sent file.
	received string
}

// Enumerate walks the filesystem and yields transcripts.
// Phase 1: Walk directory tree and collect eligible file paths (fast, sequential).
// Phase 2: Read files and invoke callback in parallel.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback func(t *transcript.Transcript) error) error {
	if _, err := filepath.Match(e.config.Pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", e.config.Pattern, err)
	}

	// Load .gitignore patterns if present
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(e.config.Root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}

	// Phase 1: Walk and collect eligible file paths
	var files []fileEntry
	err := filepath.Walk(e.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if path != e.config.Root && !e.config.IncludeHidden && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}

		if !e.config.IncludeHidden && isHidden(info.Name()) {
			return nil
		}

		if e.config.MaxFileSize > 0 && info.Size() > e.config.MaxFileSize {
			return nil
		}

		if ignore != nil {
			relPath, err := filepath.Rel(e.config.Root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(relPath) {
				return nil
			}
		}

		if entry, ok := e.classify(path, info.Name()); ok {
			files = append(files, entry)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Phase 2: Read and process files in parallel
	numReaders := runtime.NumCPU()
	if numReaders < 1 {
		numReaders = 1
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan fileEntry, numReaders*2)

	// Feed paths to readers
	g.Go(func() error {
		defer close(pathsCh)
		for _, f := range files {
			select {
			case pathsCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Parallel readers
	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for f := range pathsCh {
				if err := e.processFile(ctx, f, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if origCtx.Err() != nil {
		return origCtx.Err()
	}
	return nil
}

// classify decides whether a file is a transcript: a file matching the pattern, or
// the .sent half of a raw pair whose .received half exists.
func (e *FilesystemEnumerator) classify(path, name string) (fileEntry, bool) {
	if matched, _ := filepath.Match(e.config.Pattern, name); matched {
		return fileEntry{path: path}, true
	}
	if strings.HasSuffix(name, sentSuffix) {
		received := strings.TrimSuffix(path, sentSuffix) + receivedSuffix
		if _, err := os.Stat(received); err == nil {
			return fileEntry{path: path, received: received}, true
		}
	}
	return fileEntry{}, false
}

// processFile loads a single transcript and invokes the callback.
func (e *FilesystemEnumerator) processFile(ctx context.Context, f fileEntry, callback func(t *transcript.Transcript) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var t *transcript.Transcript
	var err error
	if f.received != "" {
		t, err = transcript.LoadRaw(f.path, f.received)
	} else {
		t, err = transcript.LoadFile(f.path)
	}
	if err != nil {
		if e.config.Strict {
			return fmt.Errorf("failed to load transcript %s: %w", f.path, err)
		}
		e.config.Logger.WithError(err).WithField("path", f.path).Warn("skipping file that is not a transcript")
		return nil
	}

	return callback(t)
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
