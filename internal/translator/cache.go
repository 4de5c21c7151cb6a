package translator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"pptx-translator/internal/types"
)

// CacheVersion is written into every cache file.
const CacheVersion = "1.0"

// CacheEntry is one cached translation.
type CacheEntry struct {
	Hash        string    `json:"hash"`
	Language    string    `json:"language"`
	Original    string    `json:"original"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}

// CacheFile is the on-disk layout.
type CacheFile struct {
	Version string       `json:"version"`
	Entries []CacheEntry `json:"entries"`
}

// Cache 翻译缓存, keyed by (target language, source text). Safe for
// concurrent use.
type Cache struct {
	path    string
	entries map[string]CacheEntry
	mu      sync.RWMutex
}

// NewCache creates an empty cache persisted at path. An empty path keeps
// the cache in memory only.
func NewCache(path string) *Cache {
	return &Cache{path: path, entries: make(map[string]CacheEntry)}
}

// ComputeHash returns the cache key of text for a target language.
func ComputeHash(lang, text string) string {
	sum := sha256.Sum256([]byte(lang + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached translation, if any.
func (c *Cache) Get(lang, text string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[ComputeHash(lang, text)]
	return e.Translation, ok
}

// Set stores a translation.
func (c *Cache) Set(lang, text, translation string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	h := ComputeHash(lang, text)
	c.entries[h] = CacheEntry{
		Hash:        h,
		Language:    lang,
		Original:    text,
		Translation: translation,
		CreatedAt:   time.Now(),
	}
}

// Size returns the number of entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry)
}

// Load reads the cache file. A missing file leaves the cache empty.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrIO, "failed to read cache file", c.path, err)
	}
	var f CacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return types.NewAppErrorWithDetails(types.ErrIO, "failed to parse cache file", c.path, err)
	}
	c.entries = make(map[string]CacheEntry, len(f.Entries))
	for _, e := range f.Entries {
		c.entries[e.Hash] = e
	}
	return nil
}

// Save writes the cache file, entries sorted by hash.
func (c *Cache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.path == "" {
		return nil
	}
	f := CacheFile{Version: CacheVersion, Entries: make([]CacheEntry, 0, len(c.entries))}
	for _, e := range c.entries {
		f.Entries = append(f.Entries, e)
	}
	sort.Slice(f.Entries, func(i, j int) bool { return f.Entries[i].Hash < f.Entries[j].Hash })

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to marshal cache", err)
	}
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return types.NewAppErrorWithDetails(types.ErrIO, "failed to create cache directory", dir, err)
		}
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrIO, "failed to write cache file", c.path, err)
	}
	return nil
}
