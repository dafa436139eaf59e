package index

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const kvFilePerm = 0o600

// FileKV persists each namespace as a JSON file in a directory.
//
// Saves write to a temporary file and rename it into place, so a crash
// mid-save leaves the previous mapping intact.
type FileKV struct {
	dir string
}

// NewFileKV creates a file-backed KV rooted at dir.
func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, errors.New("kv dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileKV{dir: dir}, nil
}

// Load reads the mapping persisted under namespace.
func (kv *FileKV) Load(namespace string) (map[string]float64, error) {
	data, err := os.ReadFile(kv.path(namespace))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var entries map[string]float64
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save atomically replaces the mapping persisted under namespace.
func (kv *FileKV) Save(namespace string, entries map[string]float64) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(kv.dir, namespace+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, kvFilePerm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, kv.path(namespace)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (kv *FileKV) path(namespace string) string {
	return filepath.Join(kv.dir, namespace+".json")
}
