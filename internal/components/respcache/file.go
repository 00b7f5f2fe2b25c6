package respcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// DefaultFilename is the cache file used when none is configured.
const DefaultFilename = "cache.json"

// mode of a newly created cache file, an existing file keeps its own
const fileMode os.FileMode = 0o644

// FileStore keeps the whole cache as a single json object mapping url to response text.
// The file is read in full before first use and rewritten in full after every Put.
type FileStore struct {
	path string

	mutex   sync.Mutex
	loaded  bool
	entries map[string]string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilename
	}
	return &FileStore{path: path}
}

func (f *FileStore) load() error {
	if f.loaded {
		return nil
	}

	entries := map[string]string{}
	contents, err := os.ReadFile(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(contents) > 0 {
		err = json.Unmarshal(contents, &entries)
		if err != nil {
			return fmt.Errorf("decode cache file %s: %w", f.path, err)
		}
	}

	f.entries = entries
	f.loaded = true
	return nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	err := f.load()
	if err != nil {
		return "", false, err
	}
	value, ok := f.entries[key]
	return value, ok, nil
}

func (f *FileStore) Contains(ctx context.Context, key string) (bool, error) {
	_, ok, err := f.Get(ctx, key)
	return ok, err
}

// Put records the entry only once the cache file has been replaced, a failed write
// leaves both the file and the in-memory view unchanged.
func (f *FileStore) Put(_ context.Context, key, value string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	err := f.load()
	if err != nil {
		return err
	}

	previous, existed := f.entries[key]
	f.entries[key] = value
	err = f.write()
	if err != nil {
		if existed {
			f.entries[key] = previous
		} else {
			delete(f.entries, key)
		}
		return err
	}
	return nil
}

func (f *FileStore) write() error {
	serialized, err := json.Marshal(f.entries)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	mode := fileMode
	if info, err := os.Stat(f.path); err == nil {
		mode = info.Mode().Perm()
	}

	// replaced through a sibling temp file, readers never see a partial cache
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	_, err = tmp.Write(serialized)
	if err == nil {
		err = tmp.Chmod(mode)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	err = os.Rename(tmp.Name(), f.path)
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
