package cache

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skyterra/crop-pipeline/internal/properties"
)

type Entry[T any] struct {
	Data      T         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
}

// FileCache persists JSON-encoded values under a cache subdirectory, one
// file per key. Entries with a checksum mismatch are treated as misses.
type FileCache[T any] struct {
	cacheDir string
	maxAge   time.Duration
}

// NewFileCache returns a cache rooted at <data root>/cache/<subDir>.
// maxAge of zero means entries never expire.
func NewFileCache[T any](subDir string, maxAge time.Duration) *FileCache[T] {
	return &FileCache[T]{
		cacheDir: filepath.Join(properties.RootPath(), "cache", subDir),
		maxAge:   maxAge,
	}
}

func (fc *FileCache[T]) Key(params ...interface{}) string {
	var keyData string
	for _, param := range params {
		keyData += fmt.Sprintf("%v_", param)
	}
	h := sha1.New()
	h.Write([]byte(keyData))
	return hex.EncodeToString(h.Sum(nil))
}

func (fc *FileCache[T]) Get(key string) (T, bool) {
	var zero T
	data, err := os.ReadFile(filepath.Join(fc.cacheDir, key+".json"))
	if err != nil {
		return zero, false
	}

	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		return zero, false
	}
	if entry.Checksum != checksum(entry.Data) {
		return zero, false
	}
	if fc.maxAge > 0 && time.Since(entry.CreatedAt) > fc.maxAge {
		return zero, false
	}

	return entry.Data, true
}

func (fc *FileCache[T]) Set(key string, data T) error {
	if err := os.MkdirAll(fc.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %v", err)
	}

	entry := Entry[T]{
		Data:      data,
		CreatedAt: time.Now(),
		Checksum:  checksum(data),
	}
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %v", err)
	}

	cacheFile := filepath.Join(fc.cacheDir, key+".json")
	tmpFile := cacheFile + ".tmp"
	if err := os.WriteFile(tmpFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %v", err)
	}
	if err := os.Rename(tmpFile, cacheFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp cache file: %v", err)
	}

	return nil
}

func checksum[T any](data T) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return hex.EncodeToString(hash[:])
}
