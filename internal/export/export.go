// Package export writes conversation snapshots to disk and reads them back.
// A snapshot is the JSON array produced by chat.Session.Export, stored as
// chat-history-<YYYY-MM-DD>.json.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/longkey1/suvidha/internal/chat"
)

const (
	filePrefix = "chat-history-"
	fileExt    = ".json"
	dateLayout = "2006-01-02"
)

// maxSuffix bounds the search for a free file name on one day
const maxSuffix = 1000

// ErrNotFound is returned when no snapshot matches a reference
var ErrNotFound = errors.New("export not found")

// Exporter serializes a conversation
type Exporter interface {
	Export(w io.Writer) error
}

// AmbiguousError is returned when a reference matches several snapshots
type AmbiguousError struct {
	Ref     string
	Matches []Snapshot
}

func (e *AmbiguousError) Error() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Ambiguous export %q. Multiple matches found:", e.Ref))
	for _, match := range e.Matches {
		lines = append(lines, fmt.Sprintf("- %s (%d messages)", match.Name, match.MessageCount()))
	}
	lines = append(lines, "")
	lines = append(lines, "Please use the full file name or run 'suvidha history list'.")
	return strings.Join(lines, "\n")
}

// Snapshot is an exported conversation on disk
type Snapshot struct {
	Name     string
	Path     string
	Size     int64
	ModTime  time.Time
	Messages []chat.Message
}

// MessageCount returns the number of messages in the snapshot
func (s *Snapshot) MessageCount() int {
	return len(s.Messages)
}

// FirstQuestion returns the content of the first user message
func (s *Snapshot) FirstQuestion() string {
	for _, msg := range s.Messages {
		if msg.Role == chat.RoleUser {
			return msg.Content
		}
	}
	return ""
}

// FileName returns the export file name for the UTC calendar day of t
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(dateLayout) + fileExt
}

// IsExportFile reports whether name looks like an export file
func IsExportFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt)
}

// Write exports e into dir and returns the path of the new file. An existing
// export of the same day is never overwritten; a numeric suffix is added
// instead.
func Write(dir string, e Exporter, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := e.Export(&buf); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := createUnique(dir, now)
	if err != nil {
		return "", err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	return f.Name(), nil
}

func createUnique(dir string, now time.Time) (*os.File, error) {
	base := strings.TrimSuffix(FileName(now), fileExt)
	for n := 0; n < maxSuffix; n++ {
		name := base + fileExt
		if n > 0 {
			name = fmt.Sprintf("%s-%d%s", base, n, fileExt)
		}
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create export file: %w", err)
		}
	}
	return nil, fmt.Errorf("too many exports for %s in %s", now.UTC().Format(dateLayout), dir)
}

// Load reads a snapshot from path
func Load(path string) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat export file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	var messages []chat.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse export file %s: %w", filepath.Base(path), err)
	}

	return &Snapshot{
		Name:     filepath.Base(path),
		Path:     path,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Messages: messages,
	}, nil
}

// List returns the snapshots in dir sorted by modification time (newest first)
func List(dir string) ([]Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !IsExportFile(entry.Name()) {
			continue
		}
		snapshot, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			// Skip files that are not valid exports
			continue
		}
		snapshots = append(snapshots, *snapshot)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		if snapshots[i].ModTime.Equal(snapshots[j].ModTime) {
			return snapshots[i].Name > snapshots[j].Name
		}
		return snapshots[i].ModTime.After(snapshots[j].ModTime)
	})
	return snapshots, nil
}

// Find resolves ref to a snapshot in dir. ref may be a path to an export in
// dir, a file name (with or without .json), a date prefix such as 2025-03 or
// 2025-03-01, or "latest" for the most recent export.
func Find(dir, ref string) (*Snapshot, error) {
	if ref == "latest" {
		return Latest(dir)
	}

	if strings.ContainsRune(ref, filepath.Separator) {
		path, err := pathInDir(dir, ref)
		if err != nil {
			return nil, err
		}
		return Load(path)
	}

	name := ref
	if !strings.HasSuffix(name, fileExt) {
		name += fileExt
	}
	if !strings.HasPrefix(name, filePrefix) {
		name = filePrefix + name
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
		return Load(filepath.Join(dir, name))
	}

	snapshots, err := List(dir)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimSuffix(name, fileExt)
	var matches []Snapshot
	for _, snapshot := range snapshots {
		if strings.HasPrefix(snapshot.Name, prefix) {
			matches = append(matches, snapshot)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s\n\nRun 'suvidha history list' to see available exports.", ErrNotFound, ref)
	}
	if len(matches) > 1 {
		return nil, &AmbiguousError{Ref: ref, Matches: matches}
	}
	return &matches[0], nil
}

// pathInDir accepts ref only when it names an export file directly inside dir
func pathInDir(dir, ref string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve export directory: %w", err)
	}
	path, err := filepath.Abs(ref)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	if filepath.Dir(path) != absDir || !IsExportFile(filepath.Base(path)) {
		return "", fmt.Errorf("%w: %s is not an export in %s", ErrNotFound, ref, dir)
	}
	return path, nil
}

// Latest returns the most recently written snapshot in dir
func Latest(dir string) (*Snapshot, error) {
	snapshots, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: no exports in %s", ErrNotFound, dir)
	}
	return &snapshots[0], nil
}
