package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File names inside the state directory. The suspended marker encodes the run
// state by its presence alone; the other two hold a single integer each.
const (
	suspendedMarker  = "suspended"
	lastActivityFile = "last_activity"
	pidFile          = "pid"
)

// FileStore keeps state as small files in a directory scoped to the
// supervised process's environment. Writes go through a temp file and rename
// with fsync so a crash between cycles never leaves a torn record.
type FileStore struct {
	dir string
}

// NewFile returns a FileStore rooted at dir. The directory is created by Init.
func NewFile(dir string) (*FileStore, error) {
	d := strings.TrimSpace(dir)
	if d == "" {
		return nil, errors.New("empty state directory")
	}
	return &FileStore{dir: filepath.Clean(d)}, nil
}

// Dir returns the state directory path.
func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) Init(_ context.Context, now time.Time) error {
	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return err
	}
	p := filepath.Join(f.dir, lastActivityFile)
	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return f.writeFile(lastActivityFile, strconv.FormatInt(now.Unix(), 10))
}

func (f *FileStore) RunState(_ context.Context) (RunState, error) {
	_, err := os.Stat(filepath.Join(f.dir, suspendedMarker))
	if err == nil {
		return Suspended, nil
	}
	if os.IsNotExist(err) {
		return Active, nil
	}
	// Unreadable marker: report Active so a broken store never strands the
	// process suspended, but surface the error to the caller.
	return Active, err
}

func (f *FileStore) MarkSuspended(_ context.Context) error {
	return f.writeFile(suspendedMarker, "")
}

func (f *FileStore) MarkActive(_ context.Context) error {
	err := os.Remove(filepath.Join(f.dir, suspendedMarker))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return f.syncDir()
}

func (f *FileStore) LastActivity(_ context.Context) (time.Time, error) {
	b, err := os.ReadFile(filepath.Join(f.dir, lastActivityFile))
	if err != nil {
		return time.Time{}, err
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}

func (f *FileStore) SetLastActivity(_ context.Context, t time.Time) error {
	return f.writeFile(lastActivityFile, strconv.FormatInt(t.Unix(), 10))
}

func (f *FileStore) CachedPID(_ context.Context) (int, error) {
	b, err := os.ReadFile(filepath.Join(f.dir, pidFile))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, err
	}
	return pid, nil
}

func (f *FileStore) SetCachedPID(_ context.Context, pid int) error {
	return f.writeFile(pidFile, strconv.Itoa(pid))
}

func (f *FileStore) Close() error { return nil }

// writeFile writes name atomically: temp file in the same directory, fsync,
// rename, then fsync the directory entry.
func (f *FileStore) writeFile(name, content string) error {
	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err = tmp.WriteString(content); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return f.syncDir()
}

func (f *FileStore) syncDir() error {
	d, err := os.Open(f.dir)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()
	// Directory fsync is unsupported on some platforms; durability of the
	// rename itself is already the important part.
	_ = d.Sync()
	return nil
}
