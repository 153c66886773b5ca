package clientstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
)

// FileStore keeps every session in one JSON document, rewritten atomically
// on each change.
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]map[Key]string
}

type fileState struct {
	Sessions map[string]map[Key]string `json:"sessions"`
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, eris.New("clientstore: file store requires a path")
	}
	state, err := loadFileState(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, data: state.Sessions}, nil
}

func loadFileState(path string) (fileState, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileState{Sessions: map[string]map[Key]string{}}, nil
		}
		return fileState{}, eris.Wrap(err, "clientstore: read state")
	}
	var state fileState
	if err := json.Unmarshal(blob, &state); err != nil {
		return fileState{}, eris.Wrap(err, "clientstore: decode state")
	}
	if state.Sessions == nil {
		state.Sessions = map[string]map[Key]string{}
	}
	return state, nil
}

func saveFileState(path string, state fileState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "clientstore: create state dir")
	}
	blob, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return eris.Wrap(err, "clientstore: encode state")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return eris.Wrap(err, "clientstore: write state")
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrap(err, "clientstore: replace state")
	}
	return nil
}

func (f *FileStore) Get(_ context.Context, session string, key Key) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[session][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(_ context.Context, session string, key Key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket, ok := f.data[session]
	if !ok {
		bucket = map[Key]string{}
		f.data[session] = bucket
	}
	prev, had := bucket[key]
	bucket[key] = value
	if err := saveFileState(f.path, fileState{Sessions: f.data}); err != nil {
		if had {
			bucket[key] = prev
		} else {
			delete(bucket, key)
		}
		return err
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, session string, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket, ok := f.data[session]
	if !ok {
		return nil
	}
	prev, ok := bucket[key]
	if !ok {
		return nil
	}
	delete(bucket, key)
	if err := saveFileState(f.path, fileState{Sessions: f.data}); err != nil {
		bucket[key] = prev
		return err
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
