package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Cache persists compressed inspector dumps on disk, keyed by root module
// name, so repeated runs skip the interpreter when nothing changed.
type Cache struct {
	Dir string
}

func (c *Cache) path(module string) string {
	return filepath.Join(c.Dir, module+".json.zst")
}

// Store compresses and saves a dump to disk.
func (c *Cache) Store(module string, d *Dump) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating dump cache dir: %w", err)
	}

	f, err := os.Create(c.path(module))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if err := json.NewEncoder(w).Encode(d); err != nil {
		w.Close()
		return fmt.Errorf("encoding dump: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// Load reads and decompresses a cached dump from disk.
func (c *Cache) Load(module string) (*Dump, error) {
	f, err := os.Open(c.path(module))
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	return DecodeDump(r)
}

// Has checks whether a cached dump exists on disk for the module.
func (c *Cache) Has(module string) bool {
	_, err := os.Stat(c.path(module))
	return err == nil
}

// Fresh reports whether every file in a dump manifest still exists with
// the mtime recorded at dump time.
func Fresh(files map[string]float64) bool {
	for path, mtime := range files {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		got := float64(info.ModTime().UnixNano()) / 1e9
		if math.Abs(got-mtime) > 0.001 {
			return false
		}
	}
	return true
}
