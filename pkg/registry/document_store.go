package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carverauto/devicewatch/pkg/kv"
	"github.com/carverauto/devicewatch/pkg/models"
)

const (
	documentFileMode = 0o644
	documentDirMode  = 0o755
)

// FileDocumentStore keeps the device document in a JSON file on local disk.
type FileDocumentStore struct {
	path string
}

var _ DocumentStore = (*FileDocumentStore)(nil)

// NewFileDocumentStore returns a store writing to path.
func NewFileDocumentStore(path string) *FileDocumentStore {
	return &FileDocumentStore{path: path}
}

// Path returns the document location.
func (f *FileDocumentStore) Path() string {
	return f.path
}

func (f *FileDocumentStore) Load(_ context.Context) ([]models.Device, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	devices, err := decodeDocument(data)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", f.path, err)
	}

	return devices, true, nil
}

// Save writes the document to a temporary file in the same directory and
// renames it over the previous one, so readers never see a partial document.
func (f *FileDocumentStore) Save(_ context.Context, devices []models.Device) error {
	data, err := encodeDocument(devices)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, documentDirMode); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()

	defer func() {
		_ = os.Remove(tmpName) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Chmod(tmpName, documentFileMode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}

	return nil
}

// KVDocumentStore keeps the device document under a single key of a KV store.
type KVDocumentStore struct {
	store kv.KVStore
	key   string
}

var _ DocumentStore = (*KVDocumentStore)(nil)

// NewKVDocumentStore returns a store writing the document to key.
func NewKVDocumentStore(store kv.KVStore, key string) *KVDocumentStore {
	return &KVDocumentStore{store: store, key: key}
}

func (k *KVDocumentStore) Load(ctx context.Context) ([]models.Device, bool, error) {
	data, found, err := k.store.Get(ctx, k.key)
	if err != nil {
		return nil, false, err
	}

	if !found {
		return nil, false, nil
	}

	devices, err := decodeDocument(data)
	if err != nil {
		return nil, true, fmt.Errorf("key %s: %w", k.key, err)
	}

	return devices, true, nil
}

func (k *KVDocumentStore) Save(ctx context.Context, devices []models.Device) error {
	data, err := encodeDocument(devices)
	if err != nil {
		return err
	}

	return k.store.Put(ctx, k.key, data)
}

func encodeDocument(devices []models.Device) ([]byte, error) {
	if devices == nil {
		devices = []models.Device{}
	}

	data, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode device document: %w", err)
	}

	return data, nil
}

func decodeDocument(data []byte) ([]models.Device, error) {
	var devices []models.Device

	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}

	return devices, nil
}
